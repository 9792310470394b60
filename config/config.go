// Package config holds the settings of the ncs command, read by viper from
// a YAML file, NCS_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

// FileName is the name of the config file looked up in the home directory
// when no file is given explicitly.
const FileName = ".ncs.yaml"

// StoreConfig selects the database of exported specifications.
type StoreConfig struct {
	// "sqlite" or "pgx"
	Driver string `mapstructure:"driver"`

	// A file path for sqlite, a connection URL for pgx. Empty selects the
	// driver's default.
	DSN string `mapstructure:"dsn"`
}

// S3Config is used to read inputs given as s3://bucket/key.
type S3Config struct {
	Region string `mapstructure:"region"`

	// Endpoint, when set, replaces the AWS endpoint (e.g. for MinIO).
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// Config is the root-level settings struct.
type Config struct {
	// NCS search and construction parameters
	Search ncs.Params `mapstructure:"search"`

	Store StoreConfig `mapstructure:"store"`
	S3    S3Config    `mapstructure:"s3"`

	// Metrics, when set, is the path of a Prometheus text file written
	// after every run.
	Metrics string `mapstructure:"metrics"`
}

// SetDefaults registers the default value of every setting with v. Keys
// without a default are invisible to environment variables.
func SetDefaults(v *viper.Viper) {
	p := ncs.DefaultParams()
	defaults := map[string]interface{}{
		"search.min_contig_length":           p.MinContigLength,
		"search.min_percent":                 p.MinPercent,
		"search.max_rmsd":                    p.MaxRMSD,
		"search.similarity_threshold":        p.SimilarityThreshold,
		"search.check_atom_order":            p.CheckAtomOrder,
		"search.allow_different_size_res":    p.AllowDifferentSizeRes,
		"search.exclude_misaligned_residues": p.ExcludeMisalignedResidues,
		"search.match_radius":                p.MatchRadius,
		"search.ignore_chains":               []string{},
		"search.workers":                     p.Workers,
		"search.exclude":                     p.Exclude,
		"search.process_similar_chains":      p.ProcessSimilarChains,
		"search.use_minimal_master":          p.UseMinimalMaster,
		"search.join_spec_groups":            p.JoinSpecGroups,
		"store.driver":                       "sqlite",
		"store.dsn":                          "",
		"s3.region":                          "us-east-1",
		"s3.endpoint":                        "",
		"s3.path_style":                      false,
		"metrics":                            "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads the settings into v and decodes them. If path is empty, the
// file $HOME/.ncs.yaml is read when it exists.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("NCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config '%s': %w", path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	return c, nil
}

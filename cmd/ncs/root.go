package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/config"
)

var (
	v       = viper.New()
	cfg     config.Config
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "ncs",
	Short:         "Find, build and export the NCS groups of a model",
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, _ []string) error {
		if err := util.BindFlags(v, c); err != nil {
			return err
		}
		var err error
		if cfg, err = config.Load(v, cfgFile); err != nil {
			return err
		}
		util.S3 = cfg.S3
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "",
		"config file (default $HOME/"+config.FileName+")")
	flags.String("metrics", "", "write Prometheus metrics to this text file")
	flags.String("store-driver", "sqlite", "database of NCS specifications: sqlite or pgx")
	flags.String("store-dsn", "", "database file or connection URL")

	v.BindPFlag("metrics", flags.Lookup("metrics"))
	v.BindPFlag("store.driver", flags.Lookup("store-driver"))
	v.BindPFlag("store.dsn", flags.Lookup("store-dsn"))
}

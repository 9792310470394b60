package util

import (
	"log"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

func init() {
	log.SetFlags(0)
}

// commonFlag is a flag shared by several commands. key is the setting it
// overrides.
type commonFlag struct {
	key string
	set func(c *cobra.Command)
}

var defaults = ncs.DefaultParams()

var commonFlags = map[string]*commonFlag{
	"cpu": {
		key: "search.workers",
		set: func(c *cobra.Command) {
			c.Flags().Int("cpu", runtime.NumCPU(),
				"The max number of chain pairs compared concurrently.")
		},
	},
	"max-rmsd": {
		key: "search.max_rmsd",
		set: func(c *cobra.Command) {
			c.Flags().Float64("max-rmsd", defaults.MaxRMSD,
				"The largest RMSD, in Angstroms, between two copies.")
		},
	},
	"min-percent": {
		key: "search.min_percent",
		set: func(c *cobra.Command) {
			c.Flags().Float64("min-percent", defaults.MinPercent,
				"The fraction of residues of the longer chain that must\n"+
					"match. Values above 1 are read as percentages.")
		},
	},
	"min-contig-length": {
		key: "search.min_contig_length",
		set: func(c *cobra.Command) {
			c.Flags().Int("min-contig-length", defaults.MinContigLength,
				"Runs of matching residues shorter than this are ignored.")
		},
	},
	"exclude": {
		key: "search.exclude",
		set: func(c *cobra.Command) {
			c.Flags().String("exclude", defaults.Exclude,
				"A selection of atoms ignored while searching.")
		},
	},
	"ignore-chains": {
		key: "search.ignore_chains",
		set: func(c *cobra.Command) {
			c.Flags().StringSlice("ignore-chains", nil,
				"Chains that are never masters or copies.")
		},
	},
	"minimal-master": {
		key: "search.use_minimal_master",
		set: func(c *cobra.Command) {
			c.Flags().Bool("minimal-master", defaults.UseMinimalMaster,
				"When set, groups related by the same transforms are merged.")
		},
	},
	"similar-chains": {
		key: "search.process_similar_chains",
		set: func(c *cobra.Command) {
			c.Flags().Bool("similar-chains", defaults.ProcessSimilarChains,
				"When set, chains with differing sequences may be copies.")
		},
	},
	"join-groups": {
		key: "search.join_spec_groups",
		set: func(c *cobra.Command) {
			c.Flags().Bool("join-groups", defaults.JoinSpecGroups,
				"When set, imported groups with the same transforms are\n"+
					"joined.")
		},
	},
}

// FlagUse adds the named common flags to c.
func FlagUse(c *cobra.Command, names ...string) {
	for _, name := range names {
		fl, ok := commonFlags[name]
		if !ok {
			panic("unknown common flag " + name)
		}
		fl.set(c)
	}
}

// BindFlags binds the common flags of c to their settings in v. It must
// run once the command to execute is known, since settings can only be
// bound to one flag.
func BindFlags(v *viper.Viper, c *cobra.Command) error {
	for name, fl := range commonFlags {
		if f := c.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(fl.key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

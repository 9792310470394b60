package main

import (
	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/ncs"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

// importCmd builds NCS groups from a specification.
var importCmd = &cobra.Command{
	Use:   "import model [spec-file]",
	Short: "Build NCS groups from an NCS specification",
	Long: `Build NCS groups from an NCS specification, read from a file or,
with --from-store, from the database.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		entry := util.ModelRead(ctx, args[0])

		var s *spec.Spec
		if name, _ := c.Flags().GetString("from-store"); name != "" {
			store := openStore(ctx)
			defer store.Close()
			var err error
			s, err = store.Get(ctx, name)
			util.Assert(err, "Could not load the NCS specification '%s'", name)
		} else if len(args) == 2 {
			s = util.SpecRead(ctx, args[1])
		} else {
			util.Fatalf("Either a specification file or --from-store is required.")
		}

		p, reg := params()
		a, err := ncs.FromSpec(entry, s, p)
		util.Assert(err, "Could not import NCS groups for '%s'", args[0])
		report(c, a, reg)
	},
}

func init() {
	importCmd.Flags().String("from-store", "", "name of a specification in the database")
	util.FlagUse(importCmd, "join-groups")
	outputFlags(importCmd)

	rootCmd.AddCommand(importCmd)
}

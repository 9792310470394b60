package main

import (
	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

// findCmd searches a model for NCS, using any hints given.
var findCmd = &cobra.Command{
	Use:   "find model",
	Short: "Find the NCS groups of a model",
	Long: `Find the NCS groups of a model.

Without hints, every pair of chains is compared and chains related by a
rigid motion are grouped. Hints take precedence in this order: operators
(unless all of their copies are already in the model), ncs_group blocks,
an NCS specification.`,
	Args: cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		entry := util.ModelRead(ctx, args[0])

		var in ncs.Input
		if path, _ := c.Flags().GetString("operators"); path != "" {
			in.Operators = util.OperatorsRead(ctx, path)
		}
		if path, _ := c.Flags().GetString("groups"); path != "" {
			in.Groups = util.GroupsRead(ctx, path)
		}
		if path, _ := c.Flags().GetString("spec"); path != "" {
			in.Spec = util.SpecRead(ctx, path)
		}

		p, reg := params()
		a, err := ncs.Build(entry, in, p)
		util.Assert(err, "Could not find NCS in '%s'", args[0])
		report(c, a, reg)
	},
}

func init() {
	findCmd.Flags().String("operators", "", "operators file")
	findCmd.Flags().String("groups", "", "file of ncs_group blocks")
	findCmd.Flags().String("spec", "", "NCS specification file")
	util.FlagUse(findCmd,
		"cpu", "max-rmsd", "min-percent", "min-contig-length", "exclude",
		"ignore-chains", "minimal-master", "similar-chains", "join-groups")
	outputFlags(findCmd)

	rootCmd.AddCommand(findCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

// groupsCmd builds NCS groups from selections.
var groupsCmd = &cobra.Command{
	Use:   "groups model groups-file",
	Short: "Build NCS groups from ncs_group blocks",
	Long: `Build NCS groups from a file of ncs_group blocks, each with one
reference selection and one selection per copy:

  ncs_group {
    reference = chain A
    selection = chain B
  }

Copies must select as many atoms as their reference.`,
	Args: cobra.ExactArgs(2),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		entry := util.ModelRead(ctx, args[0])
		groups := util.GroupsRead(ctx, args[1])

		p, reg := params()
		a, err := ncs.FromSelections(entry, groups, p)
		util.Assert(err, "Could not build NCS groups for '%s'", args[0])
		report(c, a, reg)
	},
}

func init() {
	outputFlags(groupsCmd)

	rootCmd.AddCommand(groupsCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

// expandCmd generates the copies of a master from operators.
var expandCmd = &cobra.Command{
	Use:   "expand model operators",
	Short: "Generate NCS copies of a model from operators",
	Long: `Generate the NCS copies of a model holding only the master.

Every chain of the model is part of the master. Each operator that is not
the identity generates one copy, named with the first unused chain
identifiers.`,
	Args: cobra.ExactArgs(2),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		entry := util.ModelRead(ctx, args[0])
		ops := util.OperatorsRead(ctx, args[1])

		p, reg := params()
		a, err := ncs.FromTransforms(entry, ops, p)
		util.Assert(err, "Could not expand '%s'", args[0])
		if out, _ := c.Flags().GetString("out"); out != "" {
			full, err := a.ExpandModel()
			util.Assert(err, "Could not expand '%s'", args[0])
			util.ModelWrite(out, full)
		}
		report(c, a, reg)
	},
}

func init() {
	expandCmd.Flags().StringP("out", "o", "", "write the complete model to this file")
	outputFlags(expandCmd)

	rootCmd.AddCommand(expandCmd)
}

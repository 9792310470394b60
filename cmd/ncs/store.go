package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the database of NCS specifications",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored NCS specifications",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, _ []string) {
		ctx := c.Context()
		store := openStore(ctx)
		defer store.Close()

		sums, err := store.List(ctx)
		util.Assert(err, "Could not list NCS specifications")
		fmt.Printf("%-30s %8s %8s\n", "name", "groups", "copies")
		for _, sum := range sums {
			fmt.Printf("%-30s %8d %8d\n", sum.Name, sum.Groups, sum.Copies)
		}
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get name",
	Short: "Write a stored NCS specification",
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		store := openStore(ctx)
		defer store.Close()

		s, err := store.Get(ctx, args[0])
		util.Assert(err, "Could not load the NCS specification '%s'", args[0])
		out, _ := c.Flags().GetString("out")
		util.SpecWrite(out, s)
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete name",
	Short: "Delete a stored NCS specification",
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ctx := c.Context()
		store := openStore(ctx)
		defer store.Close()

		util.Assert(store.Delete(ctx, args[0]),
			"Could not delete the NCS specification '%s'", args[0])
	},
}

func init() {
	storeGetCmd.Flags().StringP("out", "o", "-", "output file")

	storeCmd.AddCommand(storeListCmd, storeGetCmd, storeDeleteCmd)
	rootCmd.AddCommand(storeCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/rmsd"
)

// rmsdCmd computes the RMSD between two sets of carbon-alpha atoms, each
// given by a model, a chain identifier and an inclusive range of residue
// numbers. Both sets must be exactly the same size.
var rmsdCmd = &cobra.Command{
	Use:   "rmsd model chain start stop model chain start stop",
	Short: "Compute the RMSD between two ranges of carbon-alpha atoms",
	Long: `Compute the RMSD between two ranges of carbon-alpha atoms after
superposing them with the Kabsch algorithm.

ex. 'ncs rmsd sample1.yaml A 1 10 sample1.yaml A 11 20'`,
	Args: cobra.ExactArgs(8),
	Run: func(c *cobra.Command, args []string) {
		struct1 := caAtoms(c, args[0:4])
		struct2 := caAtoms(c, args[4:8])

		// Verify that the ranges are the same length.
		if len(struct1) != len(struct2) {
			util.Fatalf("The range %s-%s corresponds to %d carbon-alpha atoms "+
				"while the range %s-%s corresponds to %d carbon-alpha atoms. "+
				"Both ranges must correspond to the same number of "+
				"carbon-alpha atoms.",
				args[2], args[3], len(struct1), args[6], args[7], len(struct2))
		}
		sup, err := rmsd.Superpose(struct1, struct2)
		util.Assert(err, "Could not superpose the atoms")
		fmt.Println(sup.RMSD)
		if verbose, _ := c.Flags().GetBool("transform"); verbose {
			fmt.Printf("R = %s\nT = %s\n", sup.R, sup.T)
		}
	},
}

// caAtoms returns the carbon-alpha coordinates picked out by a four-tuple
// of model, chain, start and stop.
func caAtoms(c *cobra.Command, tuple []string) []pdb.Coords {
	path, chainID := tuple[0], tuple[1]
	start, stop := util.ParseInt(tuple[2]), util.ParseInt(tuple[3])

	entry := util.ModelRead(c.Context(), path)
	model, err := entry.OneModel()
	util.Assert(err, "Could not use '%s'", path)

	var chain *pdb.Chain
	for _, ch := range model.MergedChains() {
		if ch.Ident == chainID {
			chain = ch
		}
	}
	if chain == nil {
		util.Fatalf("The chain '%s' could not be found in '%s'.", chainID, path)
	}

	atoms := make([]pdb.Coords, 0)
	for _, r := range chain.Residues {
		if r.SequenceNum < start || r.SequenceNum > stop {
			continue
		}
		for _, a := range r.Atoms {
			if strings.TrimSpace(a.Name) == "CA" {
				atoms = append(atoms, a.Coords)
			}
		}
	}
	if len(atoms) == 0 {
		util.Fatalf("The range %d-%d does not correspond to any carbon-alpha "+
			"atoms.", start, stop)
	}
	return atoms
}

func init() {
	rmsdCmd.Flags().Bool("transform", false, "also print the superposing rotation and translation")

	rootCmd.AddCommand(rmsdCmd)
}

// Command ncs finds, builds and exports the non-crystallographic symmetry
// (NCS) of a macromolecular model.
//
// Models are YAML files (optionally gzipped, optionally in S3). Settings are
// read from $HOME/.ncs.yaml or --config, NCS_* environment variables and
// flags.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		util.Assert(err)
	}
}

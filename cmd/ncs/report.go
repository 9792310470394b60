package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/m4tt-willi4ms/cctbx-project/cmd/util"
	"github.com/m4tt-willi4ms/cctbx-project/ncs"
	"github.com/m4tt-willi4ms/cctbx-project/specdb"
)

// params returns the configured NCS parameters with metrics recorded in a
// fresh registry.
func params() (ncs.Params, *prometheus.Registry) {
	p := cfg.Search
	reg := prometheus.NewRegistry()
	p.Metrics = ncs.NewMetrics(reg)
	return p, reg
}

// outputFlags adds the flags read by report.
func outputFlags(c *cobra.Command) {
	c.Flags().Bool("summary", true, "print a summary of the groups")
	c.Flags().String("groups-out", "", "write the groups as ncs_group blocks to this file")
	c.Flags().String("spec-out", "", "write the NCS specification to this file")
	c.Flags().String("store", "", "save the NCS specification in the database under this name")
}

// report writes the outputs requested by the flags of c, then the
// accumulated warnings.
func report(c *cobra.Command, a *ncs.Assembly, reg *prometheus.Registry) {
	ctx := c.Context()
	if summary, _ := c.Flags().GetBool("summary"); summary {
		util.Assert(a.WriteSummary(os.Stdout), "Could not write the summary")
	}
	if path, _ := c.Flags().GetString("groups-out"); path != "" {
		util.GroupsWrite(path, a)
	}

	specOut, _ := c.Flags().GetString("spec-out")
	name, _ := c.Flags().GetString("store")
	if specOut != "" || name != "" {
		s, err := a.Spec()
		util.Assert(err, "Could not export the NCS specification")
		if specOut != "" {
			util.SpecWrite(specOut, s)
		}
		if name != "" {
			store := openStore(ctx)
			defer store.Close()
			util.Assert(store.Put(ctx, name, s),
				"Could not store the NCS specification '%s'", name)
		}
	}

	if cfg.Metrics != "" {
		util.Assert(prometheus.WriteToTextfile(cfg.Metrics, reg),
			"Could not write metrics to '%s'", cfg.Metrics)
	}
	util.WarnLog(a.Log)
}

func openStore(ctx context.Context) *specdb.Store {
	store, err := specdb.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	util.Assert(err, "Could not open the NCS specification database")
	return store
}

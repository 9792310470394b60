package ncs

import (
	"runtime"

	"github.com/m4tt-willi4ms/cctbx-project/match"
)

// DefaultExclude selects the atoms ignored while searching for NCS: anything
// that is neither protein nor nucleic acid, and hydrogens.
const DefaultExclude = "not (protein or nucleotide) or element H or element D"

// Params control how NCS groups are built.
type Params struct {
	// Tolerances for comparing chains during the search.
	match.Params `mapstructure:",squash"`

	// Chains never considered as masters or copies during the search.
	IgnoreChains []string `mapstructure:"ignore_chains"`

	// The number of chain pairs compared concurrently. Values below 1 use
	// one worker per CPU.
	Workers int `mapstructure:"workers"`

	// A selection of atoms removed before the search. Empty disables the
	// filter.
	Exclude string `mapstructure:"exclude"`

	// When unset, only chains with identical sequences and atoms are
	// paired.
	ProcessSimilarChains bool `mapstructure:"process_similar_chains"`

	// When set, groups related by the same transforms are merged into one
	// group with a multi-chain master.
	UseMinimalMaster bool `mapstructure:"use_minimal_master"`

	// When set, imported groups whose transforms agree with an earlier
	// group are folded into it.
	JoinSpecGroups bool `mapstructure:"join_spec_groups"`

	// Metrics, when not nil, records search statistics.
	Metrics *Metrics `mapstructure:"-"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		Params:               match.DefaultParams(),
		Workers:              runtime.NumCPU(),
		Exclude:              DefaultExclude,
		ProcessSimilarChains: true,
		UseMinimalMaster:     true,
		JoinSpecGroups:       true,
	}
}

func (p Params) workers() int {
	if p.Workers < 1 {
		return runtime.NumCPU()
	}
	return p.Workers
}

func (p Params) matchParams() match.Params {
	mp := p.Params.Normalized()
	if !p.ProcessSimilarChains {
		mp = mp.Strict()
	}
	return mp
}

func (p Params) ignored(chain string) bool {
	for _, c := range p.IgnoreChains {
		if c == chain {
			return true
		}
	}
	return false
}

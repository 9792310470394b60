package ncs

import (
	"sync"

	"github.com/m4tt-willi4ms/cctbx-project/match"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

type chainPair struct {
	i, j int
}

// pool compares chain pairs concurrently. The result of pair k is written
// to results[k] only, so workers share no mutable state.
type pool struct {
	wg   *sync.WaitGroup
	jobs chan int
}

func newMatchWorkers(
	chains []*pdb.Chain,
	pairs []chainPair,
	results []match.Result,
	p Params,
	numWorkers int,
) pool {
	mp := p.matchParams()
	jobs := make(chan int, numWorkers*2)
	wg := &sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				pr := pairs[k]
				res := match.Chains(chains[pr.i], chains[pr.j], mp)
				results[k] = res
				p.Metrics.compared(res.Accepted, res.RMSD)
			}
		}()
	}
	return pool{wg, jobs}
}

func (p pool) enqueue(k int) {
	p.jobs <- k
}

// done waits for every enqueued comparison to finish.
func (p pool) done() {
	close(p.jobs)
	p.wg.Wait()
}

// pairSchedule returns the order in which n chain pairs are handed to the
// workers.
var pairSchedule = func(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// compareChains compares every pair of chains that could be copies of each
// other and returns the pairs with their results, in pair order.
func compareChains(chains []*pdb.Chain, p Params) ([]chainPair, []match.Result) {
	minPercent := p.matchParams().MinPercent
	pairs := make([]chainPair, 0)
	for i := range chains {
		for j := i + 1; j < len(chains); j++ {
			short := len(chains[i].Residues)
			long := len(chains[j].Residues)
			if short > long {
				short, long = long, short
			}
			if long == 0 || float64(short)/float64(long) < minPercent {
				continue
			}
			pairs = append(pairs, chainPair{i, j})
		}
	}
	results := make([]match.Result, len(pairs))
	if len(pairs) == 0 {
		return pairs, results
	}

	workers := newMatchWorkers(chains, pairs, results, p,
		min(p.workers(), len(pairs)))
	for _, k := range pairSchedule(len(pairs)) {
		workers.enqueue(k)
	}
	workers.done()
	return pairs, results
}

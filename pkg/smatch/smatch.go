package smatch

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/amrlabs/amrd/pkg/amr"
)

const (
	// DefaultRestarts is the hill-climbing restart count used when the
	// caller does not set one. Restart 0 is the greedy concept-seeded
	// start; the rest are randomized.
	DefaultRestarts = 10

	// DefaultSignificant is the number of significant digits scores are
	// rounded to for reporting.
	DefaultSignificant = 4
)

// Options controls the mapping search.
type Options struct {
	// Restarts is the total number of hill-climbing starts.
	Restarts int
	// Seed drives the randomized restarts. Runs with equal inputs, equal
	// Restarts and an equal nonzero Seed produce identical results; a zero
	// Seed draws a fresh random one.
	Seed int64
	// Parallelism caps the number of concurrently running restarts.
	// Defaults to the CPU count.
	Parallelism int
}

func (o Options) withDefaults() Options {
	if o.Restarts <= 0 {
		o.Restarts = DefaultRestarts
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.NumCPU()
	}
	if o.Seed == 0 {
		var b [8]byte
		_, _ = cryptorand.Read(b[:])
		o.Seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return o
}

// Result holds the triple counts for one scored pair, or the summed counts
// of a whole corpus. Precision, recall and F1 derive from the counts, which
// is what makes corpus aggregation a micro-average.
type Result struct {
	Matched   int
	Candidate int
	Reference int
	Restarts  int
}

// Precision is Matched over the candidate triple count.
func (r *Result) Precision() float64 {
	if r.Candidate == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Candidate)
}

// Recall is Matched over the reference triple count.
func (r *Result) Recall() float64 {
	if r.Reference == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Reference)
}

// F1 is the harmonic mean of precision and recall, zero when both are zero.
func (r *Result) F1() float64 {
	p := r.Precision()
	rec := r.Recall()
	if p+rec == 0 {
		return 0
	}
	return 2 * p * rec / (p + rec)
}

// Sum pools per-pair counts into a single corpus result. Ratios are computed
// from the summed counts, never averaged across pairs.
func Sum(results []*Result) *Result {
	total := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		total.Matched += r.Matched
		total.Candidate += r.Candidate
		total.Reference += r.Reference
		if r.Restarts > total.Restarts {
			total.Restarts = r.Restarts
		}
	}
	return total
}

// Score searches for the best partial one-to-one mapping from candidate
// variables to reference variables and counts the triples that agree under
// it. The search is randomized hill climbing: every restart climbs to a
// local optimum by applying the best strictly improving single-variable
// remap or pairwise swap, and the best restart wins, ties going to the
// lowest restart index.
func Score(candidate *amr.Graph, reference *amr.Graph, opts Options) (*Result, error) {
	if candidate == nil || reference == nil {
		return nil, fmt.Errorf("smatch: both graphs are required")
	}
	// An empty candidate scores zero, but an empty reference makes recall
	// meaningless and is an error in the gold corpus.
	if reference.TripleCount() == 0 {
		return nil, fmt.Errorf("smatch: reference graph has no triples")
	}
	opts = opts.withDefaults()

	m := newMatcher(candidate, reference)
	matches := make([]int, opts.Restarts)

	pool, err := ants.NewPool(opts.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("smatch: creating restart pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for restart := 0; restart < opts.Restarts; restart++ {
		restart := restart
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			matches[restart] = m.climb(restart, opts.Seed)
		})
		if submitErr != nil {
			wg.Done()
			return nil, fmt.Errorf("smatch: submitting restart %d: %w", restart, submitErr)
		}
	}
	wg.Wait()

	best := 0
	for _, matched := range matches {
		if matched > best {
			best = matched
		}
	}

	return &Result{
		Matched:   best,
		Candidate: candidate.TripleCount(),
		Reference: reference.TripleCount(),
		Restarts:  opts.Restarts,
	}, nil
}

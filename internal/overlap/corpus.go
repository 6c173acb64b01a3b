package overlap

import (
	"context"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// SetFunc turns a session into the fingerprint set it is compared by.
type SetFunc func(tokens []string) Set

// CorpusResult holds every pairwise score of a corpus and their mean.
type CorpusResult struct {
	Pairs []model.PairScore
	Mean  float64
}

// Scores returns the pair scores in pair order.
func (r CorpusResult) Scores() []float64 {
	out := make([]float64, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = p.Score
	}
	return out
}

// Pairwise scores every unordered pair of distinct sessions and averages
// the scores. Sessions are expected in ID order; pairs are emitted as
// (i, j) with i < j. Up to workers pairs are scored concurrently; each pair
// writes its own slot, so the result does not depend on scheduling.
// With fewer than two sessions the mean is 0.
func Pairwise(ctx context.Context, sessions []model.Session, fn SetFunc, workers int) (CorpusResult, error) {
	n := len(sessions)
	if n < 2 {
		return CorpusResult{}, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sets := make([]Set, n)
	for i, s := range sessions {
		sets[i] = fn(s.Tokens)
	}

	pairs := make([]model.PairScore, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, model.PairScore{A: sessions[i].ID, B: sessions[j].ID})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	idx := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			k, a, b := idx, sets[i], sets[j]
			idx++
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				pairs[k].Score = Jaccard(a, b)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return CorpusResult{}, err
	}

	res := CorpusResult{Pairs: pairs}
	res.Mean = stat.Mean(res.Scores(), nil)
	return res, nil
}

// Validate reports whether the mean pattern overlap of the corpus exceeds
// threshold.
func Validate(ctx context.Context, sessions []model.Session, threshold float64, workers int) (bool, CorpusResult, error) {
	res, err := Pairwise(ctx, sessions, Fingerprints, workers)
	if err != nil {
		return false, res, err
	}
	return len(res.Pairs) > 0 && res.Mean > threshold, res, nil
}

// MeanAgainst averages the overlap of probe with every corpus session.
func MeanAgainst(probe []string, sessions []model.Session, fn SetFunc) float64 {
	if len(sessions) == 0 {
		return 0
	}
	ps := fn(probe)
	var total float64
	for _, s := range sessions {
		total += Jaccard(ps, fn(s.Tokens))
	}
	return total / float64(len(sessions))
}

// Interval is a two-sided percentile bootstrap interval of a mean.
type Interval struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Bootstrap resamples scores with replacement iterations times and returns
// the 2.5th and 97.5th percentiles of the resampled means. The generator is
// supplied by the caller so runs stay reproducible. ok is false when there
// is nothing to resample.
func Bootstrap(scores []float64, iterations int, rng *rand.Rand) (iv Interval, ok bool) {
	if len(scores) == 0 || iterations <= 0 || rng == nil {
		return Interval{}, false
	}

	means := make([]float64, iterations)
	sample := make([]float64, len(scores))
	for it := range means {
		for i := range sample {
			sample[i] = scores[rng.Intn(len(scores))]
		}
		means[it] = stat.Mean(sample, nil)
	}
	slices.Sort(means)

	return Interval{
		Low:  stat.Quantile(0.025, stat.Empirical, means, nil),
		High: stat.Quantile(0.975, stat.Empirical, means, nil),
	}, true
}

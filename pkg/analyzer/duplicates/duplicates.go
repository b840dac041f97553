// Package duplicates pairs every analyzed unit with its closest counterpart
// across the codebase.
//
// Matching runs in two stages. Sketch similarity (Jaccard over shingle
// hashes) screens the candidate pairs cheaply; pairs that clear the
// threshold, or whose normalized token streams are identical, get an exact
// ratio computed from their source text. Each unit keeps the single best
// partner, and a pair never lowers a score a unit already holds.
package duplicates

import (
	"context"
	"math"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/conc/pool"

	"canopy/internal/fileproc"
	"canopy/pkg/analyzer"
	"canopy/pkg/models"
)

// JaccardThreshold is the minimum sketch similarity a pair must reach
// before the exact ratio is computed.
const JaccardThreshold = 0.3

// Matcher finds each unit's best match and records it on the unit's metrics.
type Matcher struct {
	workers int
}

// Option is a functional option for configuring Matcher.
type Option func(*Matcher)

// WithWorkers caps the number of comparison goroutines.
// Values <= 0 select the shared worker default.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		m.workers = n
	}
}

// New creates a duplicate matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// candidate is one unit's best partner so far. rank is the pair's position
// in the serial enumeration order, used to break ties deterministically
// when merging results computed on different workers.
type candidate struct {
	ratio   float64
	partner int
	rank    int
}

func newCandidates(n int) []candidate {
	c := make([]candidate, n)
	for i := range c {
		c[i].partner = -1
	}
	return c
}

func updateCandidate(bests []candidate, idx int, ratio float64, partner, rank int) {
	if ratio > bests[idx].ratio {
		bests[idx] = candidate{ratio: ratio, partner: partner, rank: rank}
	}
}

// Match compares all leaf units under the given file nodes and attaches a
// Duplication record to every unit that has a match. It returns the number
// of units that received a record. Results are identical regardless of
// worker count. Progress is reported through the context tracker, one tick
// per unit.
func (m *Matcher) Match(ctx context.Context, files []*models.ReportNode) int {
	var leaves []*models.ReportNode
	for _, f := range files {
		leaves = append(leaves, f.Leaves()...)
	}
	n := len(leaves)
	if n < 2 {
		return 0
	}

	fps := make([]*models.Fingerprint, n)
	texts := make([][]string, n)
	for i, leaf := range leaves {
		fps[i] = leaf.Fingerprint()
		if fps[i] != nil && !fps[i].Empty() {
			texts[i] = splitRunes(leaf.Source)
		}
	}

	workers := fileproc.Workers(m.workers)
	if workers > n {
		workers = n
	}

	var bests []candidate
	if workers > 1 {
		bests = m.matchParallel(ctx, leaves, fps, texts, workers)
	} else {
		bests = m.matchSerial(ctx, leaves, fps, texts)
	}
	if ctx.Err() != nil {
		return 0
	}

	matched := 0
	for i, b := range bests {
		if b.partner < 0 {
			continue
		}
		partner := leaves[b.partner]
		leaves[i].AttachDuplication(&models.Duplication{
			Score:      math.Round(b.ratio*1000) / 1000,
			Other:      partner.DisplayName(),
			LinesOther: partner.Metrics.Lines,
		})
		matched++
	}
	return matched
}

func (m *Matcher) matchSerial(ctx context.Context, leaves []*models.ReportNode, fps []*models.Fingerprint, texts [][]string) []candidate {
	n := len(leaves)
	bests := newCandidates(n)
	tracker := analyzer.TrackerFromContext(ctx)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		matchRow(i, fps, texts, bests)
		if tracker != nil {
			tracker.Tick(leaves[i].DisplayName())
		}
	}
	return bests
}

// matchParallel distributes comparison rows round-robin across workers.
// Each worker fills a private candidate table; the merge keeps, per unit,
// the highest ratio and breaks ties by serial enumeration rank, so the
// outcome matches the serial pass exactly.
func (m *Matcher) matchParallel(ctx context.Context, leaves []*models.ReportNode, fps []*models.Fingerprint, texts [][]string, workers int) []candidate {
	n := len(leaves)
	tracker := analyzer.TrackerFromContext(ctx)

	locals := make([][]candidate, workers)
	p := pool.New().WithMaxGoroutines(workers)
	for w := 0; w < workers; w++ {
		p.Go(func() {
			local := newCandidates(n)
			for i := w; i < n; i += workers {
				if ctx.Err() != nil {
					break
				}
				matchRow(i, fps, texts, local)
				if tracker != nil {
					tracker.Tick(leaves[i].DisplayName())
				}
			}
			locals[w] = local
		})
	}
	p.Wait()

	merged := newCandidates(n)
	for _, local := range locals {
		for idx, c := range local {
			if c.partner < 0 {
				continue
			}
			cur := merged[idx]
			if c.ratio > cur.ratio || (c.ratio == cur.ratio && cur.partner >= 0 && c.rank < cur.rank) {
				merged[idx] = c
			}
		}
	}
	return merged
}

// matchRow compares unit i against every later unit, updating both sides of
// each pair. Pairs are ranked i*n+j, which increases along the enumeration.
func matchRow(i int, fps []*models.Fingerprint, texts [][]string, bests []candidate) {
	n := len(fps)
	if fps[i] == nil || fps[i].Empty() {
		return
	}
	for j := i + 1; j < n; j++ {
		if fps[j] == nil || fps[j].Empty() {
			continue
		}
		ratio, ok := compare(i, j, fps, texts)
		if !ok {
			continue
		}
		rank := i*n + j
		updateCandidate(bests, i, ratio, j, rank)
		updateCandidate(bests, j, ratio, i, rank)
	}
}

// compare screens the pair by sketch similarity and, when it qualifies,
// returns the exact source ratio. Equal stream hashes mean the normalized
// token streams match, so the Jaccard screen is skipped outright.
func compare(i, j int, fps []*models.Fingerprint, texts [][]string) (float64, bool) {
	if fps[i].StreamHash() != fps[j].StreamHash() && fps[i].Jaccard(fps[j]) < JaccardThreshold {
		return 0, false
	}
	return difflib.NewMatcher(texts[i], texts[j]).Ratio(), true
}

// splitRunes explodes source into per-rune strings so the ratio weighs
// individual characters rather than whole lines.
func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

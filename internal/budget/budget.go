// Package budget decides which files fit a token budget and in what
// form. Candidates are visited once in priority order; each lands in
// the output in full, lands compressed, or is excluded. The pass is
// greedy with no backtracking, so results stay deterministic and easy
// to explain at the cost of occasionally leaving budget on the table.
package budget

import (
	"context"
	"sort"

	"github.com/zkoranges/flat/internal/compress"
	"github.com/zkoranges/flat/internal/grammar"
	"github.com/zkoranges/flat/internal/tokens"
)

// Candidate is one file eligible for inclusion, carrying everything the
// allocator needs to cost it.
type Candidate struct {
	Path  string
	Text  string
	Score int
	Prose bool
	Lang  grammar.Language
}

// DecisionKind says what happened to a candidate.
type DecisionKind int

const (
	IncludeFull DecisionKind = iota
	IncludeCompressed
	Excluded
)

func (k DecisionKind) String() string {
	switch k {
	case IncludeFull:
		return "full"
	case IncludeCompressed:
		return "compressed"
	default:
		return "excluded"
	}
}

// Decision records the allocator's verdict for one candidate. Tokens is
// the amount charged against the budget for included files and the
// unaffordable full estimate for excluded ones. Text is empty for
// excluded files.
type Decision struct {
	Path   string
	Kind   DecisionKind
	Text   string
	Tokens int
}

// Compressor is the slice of the compression engine the allocator uses.
type Compressor interface {
	Compress(ctx context.Context, source string, lang grammar.Language) compress.Outcome
}

// Options configure one allocation pass.
type Options struct {
	// Budget is the token ceiling for the run.
	Budget int
	// Compress enables the compressed inclusion form.
	Compress bool
	// Engine performs compression. Required when Compress is set.
	Engine Compressor
	// IsFullMatch reports whether a path is pinned to full inclusion.
	IsFullMatch func(path string) bool
	// Warnf, when non-nil, receives compression-failure warnings for
	// files that end up included in full.
	Warnf func(format string, args ...any)
}

// Allocate runs the greedy pass and returns one decision per candidate,
// in allocation order: score descending, path ascending, stable. The
// input slice is not modified.
func Allocate(ctx context.Context, candidates []Candidate, opts Options) []Decision {
	cands := make([]Candidate, len(candidates))
	copy(cands, candidates)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Path < cands[j].Path
	})

	decisions := make([]Decision, 0, len(cands))
	remaining := opts.Budget
	for _, cand := range cands {
		decisions = append(decisions, allocateOne(ctx, cand, &remaining, opts))
	}
	return decisions
}

func allocateOne(ctx context.Context, c Candidate, remaining *int, opts Options) Decision {
	full := tokens.Estimate(len(c.Text), c.Prose)

	// Pinned files are all-or-nothing: full content or excluded, never
	// compressed.
	if opts.Compress && opts.IsFullMatch != nil && opts.IsFullMatch(c.Path) {
		if full <= *remaining {
			*remaining -= full
			return Decision{Path: c.Path, Kind: IncludeFull, Text: c.Text, Tokens: full}
		}
		return Decision{Path: c.Path, Kind: Excluded, Tokens: full}
	}

	// Fits in full. Compression still runs when enabled, purely to
	// shrink the artifact; the budget is charged the full estimate
	// either way.
	if full <= *remaining {
		*remaining -= full
		if opts.Compress && c.Lang != grammar.Unknown {
			out := opts.Engine.Compress(ctx, c.Text, c.Lang)
			if !out.Fallback {
				return Decision{Path: c.Path, Kind: IncludeCompressed, Text: out.Text, Tokens: full}
			}
			if out.Reason != "" && opts.Warnf != nil {
				opts.Warnf("Warning: compression failed for %s: %s, including full content", c.Path, out.Reason)
			}
		}
		return Decision{Path: c.Path, Kind: IncludeFull, Text: c.Text, Tokens: full}
	}

	// Too big in full. Compression is the last chance to fit.
	if opts.Compress && c.Lang != grammar.Unknown {
		out := opts.Engine.Compress(ctx, c.Text, c.Lang)
		if !out.Fallback {
			ct := tokens.Estimate(len(out.Text), c.Prose)
			if ct <= *remaining {
				*remaining -= ct
				return Decision{Path: c.Path, Kind: IncludeCompressed, Text: out.Text, Tokens: ct}
			}
			return Decision{Path: c.Path, Kind: Excluded, Tokens: full}
		}
		if full <= *remaining {
			*remaining -= full
			if out.Reason != "" && opts.Warnf != nil {
				opts.Warnf("Warning: compression failed for %s: %s, including full content", c.Path, out.Reason)
			}
			return Decision{Path: c.Path, Kind: IncludeFull, Text: out.Text, Tokens: full}
		}
	}

	return Decision{Path: c.Path, Kind: Excluded, Tokens: full}
}

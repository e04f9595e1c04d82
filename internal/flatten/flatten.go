// Package flatten orchestrates one run: walk the tree, filter, read,
// optionally compress and allocate against a token budget, then write
// the framed artifact and its summary.
package flatten

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zkoranges/flat/internal/budget"
	"github.com/zkoranges/flat/internal/cache"
	"github.com/zkoranges/flat/internal/compress"
	"github.com/zkoranges/flat/internal/config"
	"github.com/zkoranges/flat/internal/grammar"
	"github.com/zkoranges/flat/internal/output"
	"github.com/zkoranges/flat/internal/priority"
	"github.com/zkoranges/flat/internal/tokens"
	"github.com/zkoranges/flat/internal/walk"
)

// summaryOverhead approximates the summary block's size for modes that
// estimate output size instead of measuring it.
const summaryOverhead = 200

// Run executes one flatten pass. The artifact goes to stdout or the
// configured output file; diagnostics go to stderr. Statistics are
// returned even when zero files were included; the caller decides
// whether that is fatal.
func Run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (*output.Statistics, error) {
	stats := output.NewStatistics()
	if cfg.HasBudget {
		stats.SetTokenBudget(cfg.TokenBudget)
	}

	res, err := walk.Collect(walk.Options{
		Root:             cfg.Path,
		MaxFileSize:      cfg.MaxFileSize,
		GitignorePath:    cfg.GitignorePath,
		IncludeExtension: cfg.ShouldIncludeExtension,
		IncludeName:      cfg.ShouldIncludeByMatch,
	})
	if err != nil {
		return nil, err
	}

	for _, s := range res.Skipped {
		stats.AddSkipped(s.Reason.String())
		if !cfg.StatsOnly {
			fmt.Fprintf(stderr, "Skipping %s: %s\n", s.Path, s.Reason)
		}
	}
	for _, werr := range res.Errors {
		fmt.Fprintf(stderr, "Error walking directory: %v\n", werr)
		stats.AddSkipped("read error")
	}

	if cfg.HasBudget {
		return runBudget(ctx, cfg, res.Paths, stats, stdout, stderr)
	}
	return runPlain(ctx, cfg, res.Paths, stats, stdout, stderr)
}

// runPlain streams files in path order without a token budget.
func runPlain(ctx context.Context, cfg *config.Config, paths []string, stats *output.Statistics, stdout, stderr io.Writer) (*output.Statistics, error) {
	for _, path := range paths {
		stats.AddIncluded(walk.Ext(path))
		if cfg.StatsOnly || cfg.DryRun {
			// Bodies are never written in these modes; project the
			// artifact size from metadata instead.
			if st, err := os.Stat(path); err == nil {
				stats.AddFileSizeEstimate(st.Size(), len(path))
			}
		}
	}

	if cfg.StatsOnly {
		stats.AddOutputBytes(summaryOverhead)
		fmt.Fprint(stderr, stats.FormatSummary())
		return stats, nil
	}

	out, err := output.OpenFile(cfg.Output, stdout)
	if err != nil {
		return nil, err
	}
	w := output.NewWriter(out)

	if cfg.DryRun {
		for _, path := range paths {
			if err := w.WritePath(path); err != nil {
				out.Close()
				return nil, err
			}
		}
	} else {
		engine, done := newEngine(cfg, stderr)
		defer done()
		for _, path := range paths {
			if err := writeFlattened(ctx, cfg, engine, w, path, stats, stderr); err != nil {
				out.Close()
				return nil, err
			}
		}
	}

	stats.AddOutputBytes(w.BytesWritten())
	if err := w.WriteSummary(stats); err != nil {
		out.Close()
		return nil, err
	}
	return stats, out.Close()
}

// writeFlattened emits one file record. Read errors drop the file with
// a logged line; only writer errors abort the run.
func writeFlattened(ctx context.Context, cfg *config.Config, engine *compress.Engine, w *output.Writer, path string, stats *output.Statistics, stderr io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading %s: %v\n", path, err)
		return nil
	}
	content := string(data)

	if !cfg.Compress {
		return w.WriteFile(path, content)
	}

	if cfg.IsFullMatch(filepath.Base(path)) {
		return w.WriteFileMode(path, content, "full")
	}
	lang, ok := grammar.ForPath(path)
	if !ok {
		return w.WriteFileMode(path, content, "full")
	}

	out := engine.Compress(ctx, content, lang)
	if out.Fallback {
		if out.Reason != "" {
			fmt.Fprintf(stderr, "Warning: compression failed for %s: %s, including full content\n", path, out.Reason)
		}
		return w.WriteFileMode(path, out.Text, "full")
	}
	stats.AddCompressed()
	return w.WriteFileMode(path, out.Text, "compressed")
}

// runBudget reads every candidate up front, allocates against the token
// budget in priority order, and writes the surviving decisions in path
// order. Exclusions are recorded in allocation order.
func runBudget(ctx context.Context, cfg *config.Config, paths []string, stats *output.Statistics, stdout, stderr io.Writer) (*output.Statistics, error) {
	cands := make([]budget.Candidate, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", path, err)
			stats.AddSkipped("read error")
			continue
		}
		lang, _ := grammar.ForPath(path)
		cands = append(cands, budget.Candidate{
			Path:  path,
			Text:  string(data),
			Score: priority.Score(path, cfg.Path),
			Prose: tokens.IsProseExtension(walk.Ext(path)),
			Lang:  lang,
		})
	}

	engine, done := newEngine(cfg, stderr)
	defer done()
	var comp budget.Compressor
	if engine != nil {
		comp = engine
	}

	decisions := budget.Allocate(ctx, cands, budget.Options{
		Budget:   cfg.TokenBudget,
		Compress: cfg.Compress,
		Engine:   comp,
		IsFullMatch: func(path string) bool {
			return cfg.IsFullMatch(filepath.Base(path))
		},
		Warnf: func(format string, args ...any) {
			fmt.Fprintf(stderr, format+"\n", args...)
		},
	})

	for _, d := range decisions {
		if d.Kind == budget.Excluded {
			stats.AddExcludedByBudget(d.Path)
			continue
		}
		stats.AddIncluded(walk.Ext(d.Path))
		stats.AddTokensUsed(d.Tokens)
		if d.Kind == budget.IncludeCompressed {
			stats.AddCompressed()
		}
		if cfg.StatsOnly || cfg.DryRun {
			stats.AddFileSizeEstimate(int64(len(d.Text)), len(d.Path))
		}
	}

	if cfg.StatsOnly {
		stats.AddOutputBytes(summaryOverhead)
		fmt.Fprint(stderr, stats.FormatSummary())
		return stats, nil
	}

	sorted := make([]budget.Decision, len(decisions))
	copy(sorted, decisions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	out, err := output.OpenFile(cfg.Output, stdout)
	if err != nil {
		return nil, err
	}
	w := output.NewWriter(out)

	for _, d := range sorted {
		if cfg.DryRun {
			line := fmt.Sprintf("%s [%s]", d.Path, strings.ToUpper(d.Kind.String()))
			if err := w.WritePath(line); err != nil {
				out.Close()
				return nil, err
			}
			continue
		}
		if d.Kind == budget.Excluded {
			continue
		}
		var werr error
		if cfg.Compress {
			mode := "full"
			if d.Kind == budget.IncludeCompressed {
				mode = "compressed"
			}
			werr = w.WriteFileMode(d.Path, d.Text, mode)
		} else {
			werr = w.WriteFile(d.Path, d.Text)
		}
		if werr != nil {
			out.Close()
			return nil, werr
		}
	}

	stats.AddOutputBytes(w.BytesWritten())
	if err := w.WriteSummary(stats); err != nil {
		out.Close()
		return nil, err
	}
	return stats, out.Close()
}

// newEngine builds the compression engine for the run, wiring in the
// persistent cache when enabled. A nil engine means compression is off.
// Cache failures degrade to uncached operation, never a failed run.
func newEngine(cfg *config.Config, stderr io.Writer) (*compress.Engine, func()) {
	if !cfg.Compress {
		return nil, func() {}
	}
	opts := compress.Options{MaxBindingLen: cfg.MaxBindingLen}
	done := func() {}
	if cfg.CacheEnabled {
		store, err := openCache()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: compression cache unavailable: %v\n", err)
		} else {
			opts.Cache = store
			done = func() { store.Close() }
		}
	}
	return compress.New(opts), done
}

func openCache() (*cache.Store, error) {
	path, err := cache.DefaultPath()
	if err != nil {
		return nil, err
	}
	return cache.Open(path)
}

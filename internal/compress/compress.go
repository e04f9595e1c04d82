// Package compress shrinks source files down to imports, declarations,
// and signatures. Function bodies collapse to a placeholder so a file's
// structure survives while its implementation details drop out.
//
// Compression is driven by per-grammar walk tables (see tables.go): one
// generic tree walk consults the table for the file's language to decide
// which top-level constructs to keep verbatim, which to reduce to a
// signature, and which containers to descend into.
package compress

import (
	"context"
	"strings"

	"github.com/zkoranges/flat/internal/grammar"
	"github.com/zkoranges/flat/internal/parse"
)

// DefaultMaxBindingLen caps how long a top-level binding (a Python or
// Ruby assignment, for example) may be and still be kept verbatim.
const DefaultMaxBindingLen = 120

// Outcome is the result of one compression attempt. When Fallback is
// true, Text carries the original source verbatim; Reason, if non-empty,
// explains why and is worth a stderr warning. Clean compressions and
// deliberate full-content results leave Reason empty.
type Outcome struct {
	Text     string
	Fallback bool
	Reason   string
}

// Cache stores outcomes of earlier compressions keyed by grammar and
// source content. Implementations decide their own eviction and
// persistence; the engine only asks and tells.
type Cache interface {
	Get(lang grammar.Language, source string) (Outcome, bool)
	Put(lang grammar.Language, source string, out Outcome)
}

// Options configure an Engine.
type Options struct {
	// MaxBindingLen overrides DefaultMaxBindingLen when positive.
	MaxBindingLen int
	// Cache, when non-nil, is consulted before parsing.
	Cache Cache
}

// Engine compresses source files using tree-sitter grammars. It never
// fails: any parse trouble falls back to the original content.
type Engine struct {
	maxBindingLen int
	cache         Cache
}

// New builds an Engine.
func New(opts Options) *Engine {
	maxLen := opts.MaxBindingLen
	if maxLen <= 0 {
		maxLen = DefaultMaxBindingLen
	}
	return &Engine{maxBindingLen: maxLen, cache: opts.Cache}
}

// Compress reduces source to declarations and signatures.
//
// The fallback rules, in order: a failed parse, ERROR nodes in the tree,
// a panic inside the parser bindings, or an empty compression all return
// the original content with a warning reason. A compression that is not
// actually smaller than the input returns the original content silently,
// since emitting it would cost more than it saves.
func (e *Engine) Compress(ctx context.Context, source string, lang grammar.Language) Outcome {
	src := strings.TrimPrefix(source, "\uFEFF")
	if src == "" {
		return Outcome{Text: ""}
	}

	if e.cache != nil {
		if out, ok := e.cache.Get(lang, src); ok {
			return out
		}
	}

	out := e.compress(ctx, src, lang)

	if e.cache != nil {
		e.cache.Put(lang, src, out)
	}
	return out
}

func (e *Engine) compress(ctx context.Context, src string, lang grammar.Language) (out Outcome) {
	// The walk touches cgo-backed nodes; a panic there must degrade to
	// full content, not kill the run.
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Text: src, Fallback: true, Reason: "tree-sitter panic caught"}
		}
	}()

	tbl, ok := tables[lang]
	if !ok {
		return Outcome{Text: src, Fallback: true, Reason: parse.ErrLanguage.Error()}
	}

	tree, err := parse.Parse(ctx, []byte(src), lang)
	if err != nil {
		return Outcome{Text: src, Fallback: true, Reason: err.Error()}
	}
	defer tree.Close()

	w := &walker{src: []byte(src), tbl: tbl, maxBinding: e.maxBindingLen}
	compressed := w.file(tree.RootNode())

	if compressed == "" {
		return Outcome{Text: src, Fallback: true, Reason: "compressed output is empty"}
	}
	if len(compressed) >= len(src) {
		return Outcome{Text: src}
	}
	return Outcome{Text: compressed}
}

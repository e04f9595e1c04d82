// Package parse wraps the tree-sitter bindings behind a small adapter
// that turns every failure mode, including panics inside the bindings,
// into an ordinary error.
package parse

import (
	"context"
	"errors"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/zkoranges/flat/internal/grammar"
)

var (
	// ErrLanguage means no grammar handle could be installed.
	ErrLanguage = errors.New("failed to set parser language")
	// ErrNoTree means the parser produced no tree at all.
	ErrNoTree = errors.New("tree-sitter returned NULL tree")
	// ErrErrorNodes means the source parsed but the tree contains ERROR
	// nodes, so its structure cannot be trusted.
	ErrErrorNodes = errors.New("parse tree contains ERROR nodes")
)

// FaultError reports a panic recovered from the parser bindings.
type FaultError struct {
	Value any
}

func (e *FaultError) Error() string { return "tree-sitter panic caught" }

// Parse parses src with the grammar for lang. The caller owns the
// returned tree and must Close it. Trees containing ERROR nodes are
// rejected outright so callers never walk a half-recovered parse.
func Parse(ctx context.Context, src []byte, lang grammar.Language) (tree *sitter.Tree, err error) {
	handle := lang.TreeSitter()
	if handle == nil {
		return nil, ErrLanguage
	}

	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &FaultError{Value: r}
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(handle)

	t, perr := parser.ParseCtx(ctx, nil, src)
	if perr != nil || t == nil {
		return nil, ErrNoTree
	}
	if hasErrorNodes(t.RootNode()) {
		t.Close()
		return nil, ErrErrorNodes
	}
	return t, nil
}

func hasErrorNodes(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "ERROR" {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if hasErrorNodes(n.Child(i)) {
			return true
		}
	}
	return false
}

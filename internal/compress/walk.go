package compress

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// arrowMinLen is the shortest variable declaration worth splicing an
// arrow-function body out of. Below it the declaration reads fine whole.
const arrowMinLen = 80

// walker runs one grammar's table over a parse tree.
type walker struct {
	src        []byte
	tbl        *table
	maxBinding int
}

// file walks the root's children and emits one entry per matched node.
// Unmatched kinds (statements, stray expressions) are dropped.
func (w *walker) file(root *sitter.Node) string {
	var out strings.Builder
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		act, ok := w.tbl.top[child.Type()]
		if !ok {
			continue
		}
		if text, keep := w.apply(act, child); keep {
			out.WriteString(text)
			out.WriteByte('\n')
		}
	}
	return trimEnd(out.String())
}

func (w *walker) apply(act action, n *sitter.Node) (string, bool) {
	switch act.kind {
	case actVerbatim:
		return w.text(n), true
	case actBody:
		return w.body(n, act.body), true
	case actContainer:
		return w.container(n, act), true
	case actBinding:
		if t := w.text(n); len(t) <= w.maxBinding {
			return t, true
		}
		return "", false
	case actRequire:
		if t := w.text(n); strings.HasPrefix(t, "require") {
			return t, true
		}
		return "", false
	case actModuleExpr:
		return w.moduleExpression(n)
	case actClassExpr:
		if t := w.text(n); isDocstring(t) || strings.Contains(t, "=") {
			return t, true
		}
		return "", false
	case actDecorated:
		return w.decorated(n), true
	case actExport:
		return w.export(n), true
	case actArrowVar:
		return w.arrowVariable(n), true
	case actTemplate:
		return w.template(n), true
	}
	return "", false
}

// body keeps everything up to the node's body child and replaces the
// body with the style's placeholder. Nodes without a body child (trait
// method signatures, field declarations) pass through verbatim.
func (w *walker) body(n *sitter.Node, bodyKinds []string) string {
	b := firstChild(n, bodyKinds)
	if b == nil {
		return w.text(n)
	}
	sig := trimEnd(w.slice(n.StartByte(), b.StartByte()))
	switch w.tbl.style {
	case stylePython:
		if doc := w.docstring(b); doc != "" {
			return sig + "\n    " + doc + "\n    ..."
		}
		return sig + "\n    ..."
	case styleRuby:
		return sig + "\n  ...\nend"
	default:
		return sig + " { ... }"
	}
}

// container keeps the header, walks the body against the member table,
// and closes the construct in the style's idiom.
func (w *walker) container(n *sitter.Node, act action) string {
	body := firstChild(n, act.body)
	if body == nil {
		return w.text(n)
	}

	var out strings.Builder
	out.WriteString(trimEnd(w.slice(n.StartByte(), body.StartByte())))
	if w.tbl.style == styleBrace {
		out.WriteString(" {\n")
	} else {
		out.WriteByte('\n')
	}

	w.members(&out, body, act.members)

	switch w.tbl.style {
	case styleBrace:
		out.WriteByte('}')
		return out.String()
	case styleRuby:
		out.WriteString("end")
		return out.String()
	default:
		return trimEnd(out.String())
	}
}

func (w *walker) members(out *strings.Builder, body *sitter.Node, members map[string]action) {
	indent := w.tbl.style.indent()
	for i := 0; i < int(body.ChildCount()); i++ {
		item := body.Child(i)
		act, ok := members[item.Type()]
		if !ok {
			continue
		}
		if act.kind == actSplice {
			// The wrapper contributes no text of its own; its children
			// are treated as members at the same level.
			w.members(out, item, act.members)
			continue
		}
		text, keep := w.apply(act, item)
		if !keep {
			continue
		}
		if blockIndent(act.kind, w.tbl.style) {
			pushIndentedBlock(out, indent, text)
		} else {
			pushIndented(out, indent, text)
		}
	}
}

// moduleExpression keeps Python module docstrings and short top-level
// assignment expressions; everything else at expression level drops.
func (w *walker) moduleExpression(n *sitter.Node) (string, bool) {
	text := w.text(n)
	if isDocstring(text) {
		return text, true
	}
	if len(text) <= w.maxBinding {
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "assignment" {
				return text, true
			}
		}
	}
	return "", false
}

// decorated carries decorators over verbatim and compresses the wrapped
// definition.
func (w *walker) decorated(n *sitter.Node) string {
	var out strings.Builder
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "decorator":
			out.WriteString(w.text(child))
			out.WriteByte('\n')
		case "function_definition":
			out.WriteString(w.body(child, w.tbl.top["function_definition"].body))
			return out.String()
		case "class_definition":
			out.WriteString(w.container(child, w.tbl.top["class_definition"]))
			return out.String()
		}
	}
	return out.String()
}

// export compresses `export function` and `export class` forms. Every
// other export (interfaces, re-exports, default expressions) stays whole.
func (w *walker) export(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		inner := n.Child(i)
		switch inner.Type() {
		case "function_declaration":
			if block := firstChild(inner, []string{"statement_block"}); block != nil {
				sig := trimEnd(w.slice(n.StartByte(), block.StartByte()))
				return sig + " { ... }"
			}
			return w.text(n)
		case "class_declaration":
			prefix := w.slice(n.StartByte(), inner.StartByte())
			return prefix + w.container(inner, w.tbl.top["class_declaration"])
		}
	}
	return w.text(n)
}

// arrowVariable splices the statement block out of a long arrow-function
// binding, keeping the declaration and any trailing text around it.
func (w *walker) arrowVariable(n *sitter.Node) string {
	text := w.text(n)
	if !strings.Contains(text, "=>") || len(text) <= arrowMinLen {
		return text
	}
	start, end, ok := findArrowBody(n)
	if !ok {
		return text
	}
	before := trimEnd(w.slice(n.StartByte(), start))
	after := w.slice(end, n.EndByte())
	return before + "{ ... }" + after
}

func findArrowBody(n *sitter.Node) (uint32, uint32, bool) {
	if n.Type() == "arrow_function" {
		if block := firstChild(n, []string{"statement_block"}); block != nil {
			return block.StartByte(), block.EndByte(), true
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if start, end, ok := findArrowBody(n.Child(i)); ok {
			return start, end, ok
		}
	}
	return 0, 0, false
}

// template keeps the template prefix on its own line and compresses the
// templated declaration under it.
func (w *walker) template(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		prefix := trimEnd(w.slice(n.StartByte(), child.StartByte()))
		switch child.Type() {
		case "function_definition":
			return prefix + "\n" + w.body(child, []string{"compound_statement"})
		case "class_specifier":
			return prefix + "\n" + w.container(child, w.tbl.top["class_specifier"])
		case "declaration":
			return prefix + "\n" + w.text(child)
		}
	}
	return w.text(n)
}

// docstring returns the text of a block's leading docstring, or "".
func (w *walker) docstring(block *sitter.Node) string {
	if block.ChildCount() == 0 {
		return ""
	}
	first := block.Child(0)
	if first.Type() != "expression_statement" {
		return ""
	}
	if t := w.text(first); isDocstring(t) {
		return t
	}
	return ""
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

func (w *walker) slice(start, end uint32) string {
	return string(w.src[start:end])
}

// blockIndent decides whether a member's text is indented on every line
// (nested containers and other multi-line forms) or only on its first
// line (single-line entries whose inner lines keep source indentation).
func blockIndent(k actionKind, s style) bool {
	switch k {
	case actContainer, actTemplate, actDecorated:
		return true
	case actBody:
		return s != styleBrace
	}
	return false
}

func firstChild(n *sitter.Node, kinds []string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		for _, k := range kinds {
			if child.Type() == k {
				return child
			}
		}
	}
	return nil
}

func isDocstring(text string) bool {
	return strings.HasPrefix(text, `"""`) || strings.HasPrefix(text, "'''")
}

func trimEnd(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

func pushIndented(out *strings.Builder, indent, text string) {
	out.WriteString(indent)
	out.WriteString(text)
	out.WriteByte('\n')
}

func pushIndentedBlock(out *strings.Builder, indent, block string) {
	for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		out.WriteString(indent)
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

package compress

import "github.com/zkoranges/flat/internal/grammar"

type actionKind int

const (
	// actVerbatim keeps the node's full text.
	actVerbatim actionKind = iota
	// actBody keeps the signature and replaces the body child with a
	// placeholder.
	actBody
	// actContainer keeps the header and walks the body child against a
	// member table.
	actContainer
	// actBinding keeps the node only when its text fits the binding cap.
	actBinding
	// actRequire keeps a bare call only when it is a require.
	actRequire
	// actModuleExpr handles Python module-level expression statements.
	actModuleExpr
	// actClassExpr handles Python class-level expression statements.
	actClassExpr
	// actDecorated handles Python decorated definitions.
	actDecorated
	// actExport handles TypeScript export statements.
	actExport
	// actArrowVar handles TypeScript variable declarations that may bind
	// arrow functions.
	actArrowVar
	// actTemplate handles C++ template declarations.
	actTemplate
	// actSplice flattens a wrapper node's children into the current
	// member list (Java's enum_body_declarations).
	actSplice
)

// action tells the walk what to do with one node kind.
type action struct {
	kind    actionKind
	body    []string          // body child kinds for actBody and actContainer
	members map[string]action // member dispatch for actContainer and actSplice
}

// style selects the placeholder and indentation idiom for a grammar.
type style int

const (
	styleBrace  style = iota // sig { ... }, members indented four spaces
	stylePython              // sig \n    ..., no closing token
	styleRuby                // sig \n  ... \n end
)

func (s style) indent() string {
	if s == styleRuby {
		return "  "
	}
	return "    "
}

// table drives compression for one grammar: a style plus the top-level
// node-kind dispatch.
type table struct {
	style style
	top   map[string]action
}

// tables maps every supported language to its walk table. TypeScript,
// TSX, JavaScript, and JSX share one table the same way they share
// grammars.
var tables = map[grammar.Language]*table{}

func init() {
	ts := typescriptTable()
	tables[grammar.Rust] = rustTable()
	tables[grammar.TypeScript] = ts
	tables[grammar.TSX] = ts
	tables[grammar.JavaScript] = ts
	tables[grammar.JSX] = ts
	tables[grammar.Python] = pythonTable()
	tables[grammar.Go] = goTable()
	tables[grammar.Java] = javaTable()
	tables[grammar.CSharp] = csharpTable()
	tables[grammar.C] = cTable()
	tables[grammar.Cpp] = cppTable()
	tables[grammar.Ruby] = rubyTable()
	tables[grammar.PHP] = phpTable()
}

func rustTable() *table {
	fn := action{kind: actBody, body: []string{"block"}}
	verbatim := action{kind: actVerbatim}

	traitMembers := map[string]action{
		"function_item":           fn,
		"function_signature_item": verbatim,
		"type_item":               verbatim,
		"const_item":              verbatim,
		"attribute_item":          verbatim,
		"line_comment":            verbatim,
		"block_comment":           verbatim,
	}
	implMembers := map[string]action{
		"function_item":  fn,
		"type_item":      verbatim,
		"const_item":     verbatim,
		"attribute_item": verbatim,
		"line_comment":   verbatim,
		"block_comment":  verbatim,
	}

	top := map[string]action{
		"function_item": fn,
		"trait_item":    {kind: actContainer, body: []string{"declaration_list"}, members: traitMembers},
		"impl_item":     {kind: actContainer, body: []string{"declaration_list"}, members: implMembers},
	}
	for _, kind := range []string{
		"use_declaration", "extern_crate_declaration", "mod_item", "type_item",
		"const_item", "static_item", "attribute_item", "inner_attribute_item",
		"macro_definition", "macro_invocation", "line_comment", "block_comment",
		"struct_item", "enum_item",
	} {
		top[kind] = verbatim
	}
	return &table{style: styleBrace, top: top}
}

func typescriptTable() *table {
	method := action{kind: actBody, body: []string{"statement_block"}}
	verbatim := action{kind: actVerbatim}

	classMembers := map[string]action{
		"method_definition":       method,
		"public_field_definition": method,
		"property_definition":     method,
		"comment":                 verbatim,
	}
	class := action{kind: actContainer, body: []string{"class_body"}, members: classMembers}

	top := map[string]action{
		"export_statement":     {kind: actExport},
		"function_declaration": method,
		"class_declaration":    class,
		"lexical_declaration":  {kind: actArrowVar},
		"variable_declaration": {kind: actArrowVar},
	}
	for _, kind := range []string{
		"import_statement", "comment", "interface_declaration",
		"type_alias_declaration", "enum_declaration",
		"export_default_declaration", "module", "ambient_declaration",
	} {
		top[kind] = verbatim
	}
	return &table{style: styleBrace, top: top}
}

func pythonTable() *table {
	fn := action{kind: actBody, body: []string{"block"}}
	verbatim := action{kind: actVerbatim}

	classMembers := map[string]action{
		"function_definition":  fn,
		"decorated_definition": {kind: actDecorated},
		"expression_statement": {kind: actClassExpr},
		"comment":              verbatim,
	}

	top := map[string]action{
		"import_statement":        verbatim,
		"import_from_statement":   verbatim,
		"future_import_statement": verbatim,
		"comment":                 verbatim,
		"expression_statement":    {kind: actModuleExpr},
		"function_definition":     fn,
		"decorated_definition":    {kind: actDecorated},
		"class_definition":        {kind: actContainer, body: []string{"block"}, members: classMembers},
		"assignment":              {kind: actBinding},
	}
	return &table{style: stylePython, top: top}
}

func goTable() *table {
	fn := action{kind: actBody, body: []string{"block"}}
	verbatim := action{kind: actVerbatim}

	top := map[string]action{
		"function_declaration": fn,
		"method_declaration":   fn,
		"package_clause":       verbatim,
		"import_declaration":   verbatim,
		"comment":              verbatim,
		"type_declaration":     verbatim,
		"const_declaration":    verbatim,
		"var_declaration":      verbatim,
	}
	return &table{style: styleBrace, top: top}
}

func javaTable() *table {
	method := action{kind: actBody, body: []string{"block", "constructor_body"}}
	verbatim := action{kind: actVerbatim}

	// One member table serves every class-like body; the body kinds list
	// covers classes, enums, interfaces, and annotation types, of which
	// any given node has exactly one.
	classMembers := map[string]action{}
	class := action{
		kind:    actContainer,
		body:    []string{"class_body", "enum_body", "interface_body", "annotation_type_body"},
		members: classMembers,
	}

	spliceMembers := map[string]action{
		"method_declaration":      method,
		"constructor_declaration": method,
		"field_declaration":       verbatim,
		"constant_declaration":    verbatim,
		"line_comment":            verbatim,
		"block_comment":           verbatim,
	}

	classMembers["method_declaration"] = method
	classMembers["constructor_declaration"] = method
	classMembers["enum_body_declarations"] = action{kind: actSplice, members: spliceMembers}
	for _, kind := range []string{
		"enum_constant", "field_declaration", "constant_declaration",
		"line_comment", "block_comment",
	} {
		classMembers[kind] = verbatim
	}
	for _, kind := range []string{
		"class_declaration", "interface_declaration", "enum_declaration", "record_declaration",
	} {
		classMembers[kind] = class
	}

	top := map[string]action{
		"package_declaration": verbatim,
		"import_declaration":  verbatim,
		"line_comment":        verbatim,
		"block_comment":       verbatim,
	}
	for _, kind := range []string{
		"class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration",
	} {
		top[kind] = class
	}
	return &table{style: styleBrace, top: top}
}

func csharpTable() *table {
	method := action{kind: actBody, body: []string{"block"}}
	property := action{kind: actBody, body: []string{"accessor_list"}}
	verbatim := action{kind: actVerbatim}

	classMembers := map[string]action{}
	class := action{kind: actContainer, body: []string{"declaration_list"}, members: classMembers}
	classMembers["method_declaration"] = method
	classMembers["constructor_declaration"] = method
	classMembers["property_declaration"] = property
	for _, kind := range []string{
		"field_declaration", "event_declaration", "event_field_declaration", "comment",
	} {
		classMembers[kind] = verbatim
	}

	classLike := []string{
		"class_declaration", "interface_declaration", "struct_declaration",
		"enum_declaration", "record_declaration",
	}
	for _, kind := range classLike {
		classMembers[kind] = class
	}

	nsMembers := map[string]action{
		"using_directive": verbatim,
		"comment":         verbatim,
	}
	for _, kind := range classLike {
		nsMembers[kind] = class
	}
	// File-scoped namespaces have no declaration list child, so the
	// container falls back to the bare `namespace X;` line and the
	// classes appear as ordinary top-level siblings.
	ns := action{kind: actContainer, body: []string{"declaration_list"}, members: nsMembers}

	top := map[string]action{
		"namespace_declaration":             ns,
		"file_scoped_namespace_declaration": ns,
		"using_directive":                   verbatim,
		"comment":                           verbatim,
	}
	for _, kind := range classLike {
		top[kind] = class
	}
	return &table{style: styleBrace, top: top}
}

func cTable() *table {
	fn := action{kind: actBody, body: []string{"compound_statement"}}
	verbatim := action{kind: actVerbatim}

	top := map[string]action{"function_definition": fn}
	for _, kind := range []string{
		"preproc_include", "preproc_def", "preproc_ifdef", "preproc_if",
		"preproc_ifndef", "preproc_function_def", "preproc_call", "comment",
		"declaration", "type_definition", "struct_specifier", "enum_specifier",
		"union_specifier",
	} {
		top[kind] = verbatim
	}
	return &table{style: styleBrace, top: top}
}

func cppTable() *table {
	fn := action{kind: actBody, body: []string{"compound_statement"}}
	verbatim := action{kind: actVerbatim}
	template := action{kind: actTemplate}

	classMembers := map[string]action{}
	class := action{kind: actContainer, body: []string{"field_declaration_list"}, members: classMembers}
	classMembers["function_definition"] = fn
	classMembers["template_declaration"] = template
	for _, kind := range []string{
		"field_declaration", "declaration", "using_declaration", "alias_declaration",
		"type_definition", "access_specifier", "friend_declaration",
		"preproc_ifdef", "preproc_if", "preproc_ifndef", "preproc_def",
		"preproc_call", "comment",
	} {
		classMembers[kind] = verbatim
	}

	nsMembers := map[string]action{}
	ns := action{kind: actContainer, body: []string{"declaration_list"}, members: nsMembers}
	nsMembers["function_definition"] = fn
	nsMembers["class_specifier"] = class
	nsMembers["template_declaration"] = template
	nsMembers["namespace_definition"] = ns
	for _, kind := range []string{
		"struct_specifier", "enum_specifier", "union_specifier", "declaration",
		"type_definition", "using_declaration", "alias_declaration",
		"preproc_ifdef", "preproc_if", "preproc_ifndef", "preproc_def",
		"preproc_call", "comment",
	} {
		nsMembers[kind] = verbatim
	}

	linkageMembers := map[string]action{
		"function_definition": fn,
		"declaration":         verbatim,
		"comment":             verbatim,
	}

	top := map[string]action{
		"function_definition":   fn,
		"class_specifier":       class,
		"namespace_definition":  ns,
		"template_declaration":  template,
		"linkage_specification": {kind: actContainer, body: []string{"declaration_list"}, members: linkageMembers},
	}
	for _, kind := range []string{
		"preproc_include", "preproc_def", "preproc_ifdef", "preproc_if",
		"preproc_ifndef", "preproc_function_def", "preproc_call", "comment",
		"declaration", "type_definition", "using_declaration", "alias_declaration",
		"struct_specifier", "enum_specifier", "union_specifier",
	} {
		top[kind] = verbatim
	}
	return &table{style: styleBrace, top: top}
}

func rubyTable() *table {
	method := action{kind: actBody, body: []string{"body_statement"}}
	verbatim := action{kind: actVerbatim}
	binding := action{kind: actBinding}

	classMembers := map[string]action{}
	class := action{kind: actContainer, body: []string{"body_statement"}, members: classMembers}
	classMembers["method"] = method
	classMembers["singleton_method"] = method
	classMembers["class"] = class
	classMembers["module"] = class
	classMembers["comment"] = verbatim
	classMembers["call"] = binding
	classMembers["assignment"] = binding

	top := map[string]action{
		"comment":          verbatim,
		"call":             {kind: actRequire},
		"method":           method,
		"singleton_method": method,
		"class":            class,
		"module":           class,
		"assignment":       binding,
	}
	return &table{style: styleRuby, top: top}
}

func phpTable() *table {
	fn := action{kind: actBody, body: []string{"compound_statement"}}
	verbatim := action{kind: actVerbatim}

	classMembers := map[string]action{
		"method_declaration":   fn,
		"property_declaration": verbatim,
		"const_declaration":    verbatim,
		"use_declaration":      verbatim,
		"enum_case":            verbatim,
		"comment":              verbatim,
	}
	class := action{
		kind:    actContainer,
		body:    []string{"declaration_list", "enum_declaration_list"},
		members: classMembers,
	}

	classLike := []string{
		"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration",
	}

	nsMembers := map[string]action{
		"function_definition":       fn,
		"namespace_use_declaration": verbatim,
		"const_declaration":         verbatim,
		"comment":                   verbatim,
	}
	for _, kind := range classLike {
		nsMembers[kind] = class
	}

	top := map[string]action{
		"function_definition":       fn,
		"namespace_definition":      {kind: actContainer, body: []string{"compound_statement", "declaration_list"}, members: nsMembers},
		"php_tag":                   verbatim,
		"namespace_use_declaration": verbatim,
		"const_declaration":         verbatim,
		"comment":                   verbatim,
	}
	for _, kind := range classLike {
		top[kind] = class
	}
	return &table{style: styleBrace, top: top}
}

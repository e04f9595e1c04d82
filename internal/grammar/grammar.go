// Package grammar maps file extensions to tree-sitter grammars.
package grammar

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies one supported source language. The zero value is
// Unknown, which has no grammar.
type Language int

const (
	Unknown Language = iota
	Rust
	TypeScript
	TSX
	JavaScript
	JSX
	Python
	Go
	Java
	CSharp
	C
	Cpp
	Ruby
	PHP
)

// JavaScript and JSX deliberately share the TypeScript and TSX grammars:
// those grammars are supersets, so plain JS parses cleanly and the two
// dialects never need separate walk tables.
var (
	tsHandle  = typescript.GetLanguage()
	tsxHandle = tsx.GetLanguage()
)

var handles = map[Language]*sitter.Language{
	Rust:       rust.GetLanguage(),
	TypeScript: tsHandle,
	TSX:        tsxHandle,
	JavaScript: tsHandle,
	JSX:        tsxHandle,
	Python:     python.GetLanguage(),
	Go:         golang.GetLanguage(),
	Java:       java.GetLanguage(),
	CSharp:     csharp.GetLanguage(),
	C:          tsc.GetLanguage(),
	Cpp:        cpp.GetLanguage(),
	Ruby:       ruby.GetLanguage(),
	PHP:        php.GetLanguage(),
}

var names = map[Language]string{
	Rust:       "Rust",
	TypeScript: "TypeScript",
	TSX:        "TSX",
	JavaScript: "JavaScript",
	JSX:        "JSX",
	Python:     "Python",
	Go:         "Go",
	Java:       "Java",
	CSharp:     "C#",
	C:          "C",
	Cpp:        "C++",
	Ruby:       "Ruby",
	PHP:        "PHP",
}

var extensions = map[Language][]string{
	Rust:       {"rs"},
	TypeScript: {"ts"},
	TSX:        {"tsx"},
	JavaScript: {"js", "mjs", "cjs"},
	JSX:        {"jsx"},
	Python:     {"py"},
	Go:         {"go"},
	Java:       {"java"},
	CSharp:     {"cs"},
	C:          {"c", "h"},
	Cpp:        {"cpp", "cc", "cxx", "hpp", "hh", "hxx"},
	Ruby:       {"rb"},
	PHP:        {"php"},
}

var byExtension = map[string]Language{}

func init() {
	for lang, exts := range extensions {
		for _, ext := range exts {
			byExtension[ext] = lang
		}
	}
}

// All returns every supported language in display order.
func All() []Language {
	return []Language{
		Rust, TypeScript, TSX, JavaScript, JSX, Python, Go,
		Java, CSharp, C, Cpp, Ruby, PHP,
	}
}

// Name returns the display name, or "unknown".
func (l Language) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return "unknown"
}

// Extensions returns the file extensions handled by this language.
func (l Language) Extensions() []string {
	return extensions[l]
}

// TreeSitter returns the tree-sitter grammar handle, or nil for Unknown.
func (l Language) TreeSitter() *sitter.Language {
	return handles[l]
}

// ForExtension resolves an extension (without the leading dot,
// case-insensitive) to its language.
func ForExtension(ext string) (Language, bool) {
	l, ok := byExtension[strings.ToLower(ext)]
	return l, ok
}

// ForPath resolves a file path to its language by extension. Files with
// no extension, including dotfiles like ".bashrc", resolve to nothing.
func ForPath(path string) (Language, bool) {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return Unknown, false
	}
	return ForExtension(base[i+1:])
}

// Package tokens approximates LLM token counts from byte lengths.
package tokens

import "strings"

// proseExtensions lists formats that average about four bytes per token.
// Everything else is treated as code at roughly three bytes per token.
var proseExtensions = map[string]bool{
	"md":      true,
	"txt":     true,
	"rst":     true,
	"adoc":    true,
	"textile": true,
	"org":     true,
	"wiki":    true,
}

// IsProseExtension reports whether ext (without the leading dot) names a
// prose format rather than source code.
func IsProseExtension(ext string) bool {
	return proseExtensions[strings.ToLower(ext)]
}

// Estimate approximates how many tokens a blob of the given byte length
// will cost. The divisors are deliberately crude; the caller only needs
// stable, comparable numbers for budgeting, not tokenizer accuracy.
func Estimate(byteLen int, prose bool) int {
	if prose {
		return byteLen / 4
	}
	return byteLen / 3
}

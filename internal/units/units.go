// Package units parses and formats human-friendly byte and token counts.
//
// Two suffix conventions coexist on purpose: token budgets are decimal
// ("100k" tokens = 100 000) while file sizes are binary ("1M" = 1 MiB).
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseDecimal parses a count with an optional k/K, M, or G suffix using
// decimal multipliers (k = 1 000, M = 1 000 000, G = 1 000 000 000).
func ParseDecimal(input string) (int, error) {
	n, err := parse(input, 1000)
	return int(n), err
}

// ParseBinary parses a size with an optional k/K, M, or G suffix using
// binary multipliers (k = 1 024, M = 1 048 576, G = 1 073 741 824).
func ParseBinary(input string) (int64, error) {
	return parse(input, 1024)
}

func parse(input string, unit int64) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("empty input")
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = unit
		s = s[:len(s)-1]
	case 'M':
		mult = unit * unit
		s = s[:len(s)-1]
	case 'G':
		mult = unit * unit * unit
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: '%s'", input)
	}
	if n > uint64(math.MaxInt64)/uint64(mult) {
		return 0, fmt.Errorf("number too large: '%s'", input)
	}
	return int64(n) * mult, nil
}

// FormatBytes renders a byte count as "N bytes", "X.XX KB", or "X.XX MB".
func FormatBytes(n int64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// FormatTokens renders a token count compactly: millions as "1.5M",
// ten-thousands as "45.6k", thousands with a comma, small counts plain.
func FormatTokens(n int) string {
	switch {
	case n >= 10_000:
		if n >= 1_000_000 {
			return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
		}
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	case n >= 1_000:
		return humanize.Comma(int64(n))
	default:
		return strconv.Itoa(n)
	}
}

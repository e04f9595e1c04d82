// Package output frames included files into the flattened artifact and
// accumulates the run statistics the trailing summary reports.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/zkoranges/flat/internal/units"
)

// Writer emits framed file records to an underlying stream and keeps a
// byte count for the summary's output-size line.
type Writer struct {
	w     io.Writer
	bytes int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// BytesWritten reports how many bytes have gone to the stream so far.
func (w *Writer) BytesWritten() int {
	return w.bytes
}

// WriteFile emits one record with no mode attribute.
func (w *Writer) WriteFile(path, content string) error {
	return w.WriteFileMode(path, content, "")
}

// WriteFileMode emits one record. The body's trailing newlines are
// normalized to exactly one. A non-empty mode becomes a mode attribute
// on the opening tag.
func (w *Writer) WriteFileMode(path, content, mode string) error {
	var open string
	if mode != "" {
		open = fmt.Sprintf("<file path=\"%s\" mode=\"%s\">\n", escapeXML(path), mode)
	} else {
		open = fmt.Sprintf("<file path=\"%s\">\n", escapeXML(path))
	}
	body := strings.TrimRight(content, "\n") + "\n"

	if err := w.writeString(open); err != nil {
		return err
	}
	if err := w.writeString(body); err != nil {
		return err
	}
	return w.writeString("</file>\n\n")
}

// WritePath emits a bare path line (dry-run listings).
func (w *Writer) WritePath(path string) error {
	return w.writeString(path + "\n")
}

// WriteSummary emits the summary block followed by a blank line.
func (w *Writer) WriteSummary(stats *Statistics) error {
	if err := w.writeString(stats.FormatSummary()); err != nil {
		return err
	}
	return w.writeString("\n")
}

func (w *Writer) writeString(s string) error {
	n, err := io.WriteString(w.w, s)
	w.bytes += n
	return err
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// OpenFile opens the run's output destination. An empty path means the
// given stdout stream; a path ending in .gz is gzip-compressed
// transparently.
func OpenFile(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".gz") {
		return &gzipFile{gz: gzip.NewWriter(f), f: f}, nil
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type gzipFile struct {
	gz *gzip.Writer
	f  *os.File
}

func (g *gzipFile) Write(p []byte) (int, error) {
	return g.gz.Write(p)
}

func (g *gzipFile) Close() error {
	if err := g.gz.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// Statistics accumulates the run's counters. Counters only grow; the
// summary is rendered once at the end of the pass.
type Statistics struct {
	TotalFiles          int
	IncludedFiles       int
	SkippedByReason     map[string]int
	IncludedByExtension map[string]int
	OutputSize          int
	CompressedFiles     int
	TokensUsed          int
	ExcludedByBudget    []string

	tokenBudget int
	budgetSet   bool
}

func NewStatistics() *Statistics {
	return &Statistics{
		SkippedByReason:     make(map[string]int),
		IncludedByExtension: make(map[string]int),
	}
}

// AddIncluded counts one included file under its extension. An empty
// extension lands in the "no extension" bucket.
func (s *Statistics) AddIncluded(ext string) {
	s.TotalFiles++
	s.IncludedFiles++
	if ext == "" {
		ext = "no extension"
	}
	s.IncludedByExtension[ext]++
}

// AddSkipped counts one skipped file under its reason.
func (s *Statistics) AddSkipped(reason string) {
	s.TotalFiles++
	s.SkippedByReason[reason]++
}

func (s *Statistics) AddCompressed() {
	s.CompressedFiles++
}

// AddFileSizeEstimate grows the projected output size by a file's bytes
// plus its record framing overhead.
func (s *Statistics) AddFileSizeEstimate(fileSize int64, pathLen int) {
	s.OutputSize += int(fileSize) + 25 + pathLen
}

func (s *Statistics) AddOutputBytes(n int) {
	s.OutputSize += n
}

// AddExcludedByBudget records a file squeezed out by the token budget.
func (s *Statistics) AddExcludedByBudget(path string) {
	s.TotalFiles++
	s.ExcludedByBudget = append(s.ExcludedByBudget, path)
}

func (s *Statistics) AddTokensUsed(n int) {
	s.TokensUsed += n
}

// SetTokenBudget marks the run as budgeted, enabling the budget lines
// in the summary.
func (s *Statistics) SetTokenBudget(budget int) {
	s.tokenBudget = budget
	s.budgetSet = true
}

func (s *Statistics) TotalSkipped() int {
	total := 0
	for _, n := range s.SkippedByReason {
		total += n
	}
	return total
}

// EstimatedTokens is a rough read on the artifact's token cost, at four
// characters per token.
func (s *Statistics) EstimatedTokens() int {
	return s.OutputSize / 4
}

// FormatSummary renders the closing summary block.
func (s *Statistics) FormatSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<summary>\nTotal files: %d\nIncluded: %d", s.TotalFiles, s.IncludedFiles)

	if len(s.IncludedByExtension) > 0 {
		parts := make([]string, 0, len(s.IncludedByExtension))
		for _, e := range sortedByCount(s.IncludedByExtension) {
			if e.key == "no extension" {
				parts = append(parts, fmt.Sprintf("%d without extension", e.count))
			} else {
				parts = append(parts, fmt.Sprintf("%d .%s", e.count, e.key))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteByte('\n')

	if s.CompressedFiles > 0 {
		fmt.Fprintf(&b, "Compressed: %d files\n", s.CompressedFiles)
	}

	if skipped := s.TotalSkipped(); skipped > 0 {
		parts := make([]string, 0, len(s.SkippedByReason))
		for _, e := range sortedByCount(s.SkippedByReason) {
			parts = append(parts, fmt.Sprintf("%d %s", e.count, e.key))
		}
		fmt.Fprintf(&b, "Skipped: %d (%s)\n", skipped, strings.Join(parts, ", "))
	}

	if s.budgetSet {
		fmt.Fprintf(&b, "Token budget: %s / %s used\n",
			units.FormatTokens(s.TokensUsed), units.FormatTokens(s.tokenBudget))
		if len(s.ExcludedByBudget) > 0 {
			fmt.Fprintf(&b, "Excluded by budget: %d files\n", len(s.ExcludedByBudget))
		}
	}

	if s.OutputSize > 0 {
		fmt.Fprintf(&b, "Output size: %s (~%s tokens)\n",
			units.FormatBytes(int64(s.OutputSize)), units.FormatTokens(s.EstimatedTokens()))
	}

	b.WriteString("</summary>\n")
	return b.String()
}

type countEntry struct {
	key   string
	count int
}

// sortedByCount orders a histogram by count descending, key ascending.
func sortedByCount(m map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, n := range m {
		entries = append(entries, countEntry{key: k, count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

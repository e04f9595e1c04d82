package budget

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/zkoranges/flat/internal/compress"
	"github.com/zkoranges/flat/internal/grammar"
)

type stubCompressor struct {
	outcomes map[string]compress.Outcome
	calls    int
}

func (s *stubCompressor) Compress(_ context.Context, source string, _ grammar.Language) compress.Outcome {
	s.calls++
	if out, ok := s.outcomes[source]; ok {
		return out
	}
	return compress.Outcome{Text: source, Fallback: true, Reason: "no outcome configured"}
}

func TestAllocateOrdering(t *testing.T) {
	cands := []Candidate{
		{Path: "deep/util.go", Text: "aaa", Score: 50},
		{Path: "README.md", Text: "aaa", Score: 100, Prose: true},
		{Path: "b.go", Text: "aaa", Score: 70},
		{Path: "a.go", Text: "aaa", Score: 70},
	}
	decisions := Allocate(context.Background(), cands, Options{Budget: 1000})

	got := make([]string, len(decisions))
	for i, d := range decisions {
		got[i] = d.Path
	}
	want := []string{"README.md", "a.go", "b.go", "deep/util.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("allocation order = %v, want %v", got, want)
	}
}

func TestAllocateAllFit(t *testing.T) {
	cands := []Candidate{
		{Path: "a.go", Text: strings.Repeat("x", 300), Score: 70},
		{Path: "b.go", Text: strings.Repeat("y", 150), Score: 70},
	}
	decisions := Allocate(context.Background(), cands, Options{Budget: 200})

	for _, d := range decisions {
		if d.Kind != IncludeFull {
			t.Errorf("%s: kind = %v, want full", d.Path, d.Kind)
		}
	}
	if decisions[0].Tokens != 100 || decisions[1].Tokens != 50 {
		t.Errorf("tokens = %d, %d, want 100, 50", decisions[0].Tokens, decisions[1].Tokens)
	}
}

func TestAllocateZeroBudget(t *testing.T) {
	cands := []Candidate{
		{Path: "a.go", Text: strings.Repeat("x", 30), Score: 70},
		{Path: "b.go", Text: strings.Repeat("y", 30), Score: 70},
	}
	decisions := Allocate(context.Background(), cands, Options{Budget: 0})

	for _, d := range decisions {
		if d.Kind != Excluded {
			t.Errorf("%s: kind = %v, want excluded at zero budget", d.Path, d.Kind)
		}
		if d.Text != "" {
			t.Errorf("%s: excluded decision carries text %q", d.Path, d.Text)
		}
	}
}

func TestAllocateCompressToFit(t *testing.T) {
	src := strings.Repeat("x", 300) // 100 tokens full
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: strings.Repeat("c", 90)}, // 30 tokens compressed
	}}
	cands := []Candidate{{Path: "big.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:   50,
		Compress: true,
		Engine:   stub,
	})

	d := decisions[0]
	if d.Kind != IncludeCompressed {
		t.Fatalf("kind = %v, want compressed", d.Kind)
	}
	if d.Tokens != 30 {
		t.Errorf("tokens = %d, want compressed estimate 30", d.Tokens)
	}
	if d.Text != strings.Repeat("c", 90) {
		t.Errorf("text = %q, want compressed form", d.Text)
	}
}

func TestAllocateFitFullStillCompresses(t *testing.T) {
	src := strings.Repeat("x", 300) // 100 tokens full
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: strings.Repeat("c", 90)},
	}}
	cands := []Candidate{{Path: "a.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:   500,
		Compress: true,
		Engine:   stub,
	})

	d := decisions[0]
	if d.Kind != IncludeCompressed {
		t.Fatalf("kind = %v, want compressed", d.Kind)
	}
	if d.Tokens != 100 {
		t.Errorf("tokens = %d, want full estimate charged even when shrunk", d.Tokens)
	}
	if d.Text != strings.Repeat("c", 90) {
		t.Errorf("text = %q, want compressed form substituted", d.Text)
	}
}

func TestAllocateFullMatchPinned(t *testing.T) {
	src := strings.Repeat("x", 300)
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: strings.Repeat("c", 30)},
	}}
	cands := []Candidate{{Path: "pinned.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:      500,
		Compress:    true,
		Engine:      stub,
		IsFullMatch: func(path string) bool { return path == "pinned.go" },
	})

	d := decisions[0]
	if d.Kind != IncludeFull {
		t.Fatalf("kind = %v, want pinned file included full", d.Kind)
	}
	if d.Text != src {
		t.Errorf("pinned text was altered")
	}
	if stub.calls != 0 {
		t.Errorf("compressor ran %d times for a pinned file, want 0", stub.calls)
	}
}

func TestAllocateFullMatchTooBigExcluded(t *testing.T) {
	src := strings.Repeat("x", 300) // 100 tokens
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: strings.Repeat("c", 30)}, // would fit compressed
	}}
	cands := []Candidate{{Path: "pinned.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:      50,
		Compress:    true,
		Engine:      stub,
		IsFullMatch: func(path string) bool { return true },
	})

	if decisions[0].Kind != Excluded {
		t.Fatalf("kind = %v, want excluded when pinned file does not fit", decisions[0].Kind)
	}
	if stub.calls != 0 {
		t.Errorf("compressor ran for an excluded pinned file")
	}
}

func TestAllocateFallbackTooBigExcluded(t *testing.T) {
	src := strings.Repeat("x", 300)
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: src, Fallback: true, Reason: "parse tree contains ERROR nodes"},
	}}
	var warnings []string
	cands := []Candidate{{Path: "broken.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:   50,
		Compress: true,
		Engine:   stub,
		Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})

	if decisions[0].Kind != Excluded {
		t.Fatalf("kind = %v, want excluded when fallback does not fit", decisions[0].Kind)
	}
	if len(warnings) != 0 {
		t.Errorf("warned about a file that never made it into output: %v", warnings)
	}
}

func TestAllocateFallbackWarnsWhenIncluded(t *testing.T) {
	src := strings.Repeat("x", 300)
	stub := &stubCompressor{outcomes: map[string]compress.Outcome{
		src: {Text: src, Fallback: true, Reason: "parse tree contains ERROR nodes"},
	}}
	var warnings []string
	cands := []Candidate{{Path: "broken.go", Text: src, Score: 70, Lang: grammar.Go}}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:   500,
		Compress: true,
		Engine:   stub,
		Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})

	d := decisions[0]
	if d.Kind != IncludeFull {
		t.Fatalf("kind = %v, want full when compression falls back", d.Kind)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "broken.go") {
		t.Errorf("warnings = %v, want one mentioning the file", warnings)
	}
}

func TestAllocateUnknownLanguageNeverCompressed(t *testing.T) {
	stub := &stubCompressor{}
	cands := []Candidate{
		{Path: "data.csv", Text: strings.Repeat("x", 300), Score: 70, Lang: grammar.Unknown},
	}

	decisions := Allocate(context.Background(), cands, Options{
		Budget:   50,
		Compress: true,
		Engine:   stub,
	})

	if decisions[0].Kind != Excluded {
		t.Fatalf("kind = %v, want excluded", decisions[0].Kind)
	}
	if stub.calls != 0 {
		t.Errorf("compressor ran %d times for an unrecognized language", stub.calls)
	}
}

func TestAllocateGreedyOrder(t *testing.T) {
	cands := []Candidate{
		{Path: "low.go", Text: strings.Repeat("x", 90), Score: 10},  // 30 tokens
		{Path: "high.go", Text: strings.Repeat("x", 90), Score: 90}, // 30 tokens
		{Path: "mid.go", Text: strings.Repeat("x", 90), Score: 50},  // 30 tokens
	}
	decisions := Allocate(context.Background(), cands, Options{Budget: 60})

	byPath := map[string]DecisionKind{}
	for _, d := range decisions {
		byPath[d.Path] = d.Kind
	}
	if byPath["high.go"] != IncludeFull || byPath["mid.go"] != IncludeFull {
		t.Errorf("high and mid priority files should fit: %v", byPath)
	}
	if byPath["low.go"] != Excluded {
		t.Errorf("low priority file should be squeezed out: %v", byPath)
	}
}

func TestAllocateDeterminism(t *testing.T) {
	cands := []Candidate{
		{Path: "b.go", Text: strings.Repeat("x", 120), Score: 70},
		{Path: "a.go", Text: strings.Repeat("y", 120), Score: 70},
		{Path: "README.md", Text: strings.Repeat("z", 120), Score: 100, Prose: true},
	}
	opts := Options{Budget: 75}

	first := Allocate(context.Background(), cands, opts)
	second := Allocate(context.Background(), cands, opts)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("allocation is not deterministic:\n%v\n%v", first, second)
	}
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	cands := []Candidate{
		{Path: "z.go", Text: "aaa", Score: 10},
		{Path: "a.go", Text: "bbb", Score: 90},
	}
	Allocate(context.Background(), cands, Options{Budget: 100})

	if cands[0].Path != "z.go" || cands[1].Path != "a.go" {
		t.Errorf("input slice was reordered: %v", cands)
	}
}

package flow

import (
	"encoding/json"
	"testing"
)

func TestKindIsBreak(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindParagraph, false},
		{KindImage, false},
		{KindDrawing, false},
		{KindPageBreak, true},
		{KindColumnBreak, true},
		{KindSectionBreak, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsBreak(); got != tt.want {
				t.Errorf("IsBreak() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindValid(t *testing.T) {
	if !KindParagraph.Valid() {
		t.Error("paragraph should be valid")
	}
	if Kind("table").Valid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestSpanContains(t *testing.T) {
	tests := []struct {
		name string
		span Span
		pos  int
		want bool
	}{
		{name: "inside", span: Span{Start: intp(10), End: intp(20)}, pos: 15, want: true},
		{name: "at start", span: Span{Start: intp(10), End: intp(20)}, pos: 10, want: true},
		{name: "at end", span: Span{Start: intp(10), End: intp(20)}, pos: 20, want: true},
		{name: "before", span: Span{Start: intp(10), End: intp(20)}, pos: 9, want: false},
		{name: "after", span: Span{Start: intp(10), End: intp(20)}, pos: 21, want: false},
		{name: "missing start", span: Span{End: intp(20)}, pos: 15, want: false},
		{name: "missing end", span: Span{Start: intp(10)}, pos: 15, want: false},
		{name: "empty", span: Span{}, pos: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.Contains(tt.pos); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestSpanBounds(t *testing.T) {
	para := paragraph("p1",
		Run{Text: "a", Span: Span{Start: intp(12), End: intp(13)}},
		Run{Text: "b", Span: Span{Start: intp(5), End: intp(12)}},
		Run{Text: "c"},
	)

	got := para.SpanBounds()
	if got.Start == nil || *got.Start != 5 {
		t.Errorf("Start = %v, want 5", got.Start)
	}
	if got.End == nil || *got.End != 13 {
		t.Errorf("End = %v, want 13", got.End)
	}

	img := Block{Kind: KindImage, ID: "img1", Span: Span{Start: intp(30), End: intp(31)}}
	if b := img.SpanBounds(); b.Start == nil || *b.Start != 30 {
		t.Errorf("image SpanBounds = %v", b)
	}

	bare := Block{Kind: KindPageBreak, ID: "br1"}
	if !bare.SpanBounds().IsZero() {
		t.Error("block without positions should have zero bounds")
	}
}

func TestBlockText(t *testing.T) {
	para := paragraph("p1", Run{Text: "hello "}, Run{Text: "world"})
	if got := para.Text(); got != "hello world" {
		t.Errorf("Text() = %q", got)
	}
	if got := (Block{Kind: KindImage, ID: "i"}).Text(); got != "" {
		t.Errorf("image Text() = %q, want empty", got)
	}
}

func TestCanonicalDeterministic(t *testing.T) {
	b := Block{
		Kind: KindDrawing,
		ID:   "d1",
		Attrs: map[string]any{
			"zeta":  1.5,
			"alpha": "first",
			"mid":   true,
		},
		Span: Span{Start: intp(7), End: intp(8)},
	}

	first, err := Canonical(b)
	if err != nil {
		t.Fatalf("Canonical error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Canonical(b)
		if err != nil {
			t.Fatalf("Canonical error: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("Canonical not deterministic:\n%s\n%s", first, again)
		}
	}
}

func TestCanonicalDiffersOnContent(t *testing.T) {
	a := paragraph("p1", Run{Text: "hello"})
	b := paragraph("p1", Run{Text: "hello world"})

	ca, _ := Canonical(a)
	cb, _ := Canonical(b)
	if string(ca) == string(cb) {
		t.Error("different content must serialize differently")
	}
}

func TestBlockJSONRoundTrip(t *testing.T) {
	in := Block{
		Kind: KindParagraph,
		ID:   "p1",
		Runs: []Run{
			{Text: "hello", Font: "serif", Size: 12, Span: Span{Start: intp(1), End: intp(6)}},
			{Text: " there"},
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Block
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ci, _ := Canonical(in)
	co, _ := Canonical(out)
	if string(ci) != string(co) {
		t.Errorf("round-trip changed content:\n%s\n%s", ci, co)
	}
}

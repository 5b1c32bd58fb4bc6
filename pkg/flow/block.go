package flow

import "encoding/json"

// =============================================================================
// Kinds
// =============================================================================

// Kind identifies the variant of a block.
type Kind string

// Block kinds.
const (
	KindParagraph    Kind = "paragraph"
	KindImage        Kind = "image"
	KindDrawing      Kind = "drawing"
	KindPageBreak    Kind = "page_break"
	KindColumnBreak  Kind = "column_break"
	KindSectionBreak Kind = "section_break"
)

// IsBreak reports whether the kind forces a page boundary during pagination.
func (k Kind) IsBreak() bool {
	return k == KindPageBreak || k == KindColumnBreak || k == KindSectionBreak
}

// Valid reports whether the kind is one of the known block kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindParagraph, KindImage, KindDrawing, KindPageBreak, KindColumnBreak, KindSectionBreak:
		return true
	}
	return false
}

// =============================================================================
// Span - Optional Position Capability
// =============================================================================

// Span is an optional pair of positions in the adapter's document coordinate
// space. Either bound may be absent independently; an absent bound stays
// absent through shifting.
type Span struct {
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
}

// IsZero reports whether both bounds are absent.
func (s Span) IsZero() bool { return s.Start == nil && s.End == nil }

// Contains reports whether pos falls within the span. Spans with an absent
// bound never contain anything.
func (s Span) Contains(pos int) bool {
	return s.Start != nil && s.End != nil && pos >= *s.Start && pos <= *s.End
}

// Shift returns a new span with both present bounds moved by delta.
// The result never aliases the receiver's pointers.
func (s Span) Shift(delta int) Span {
	var out Span
	if s.Start != nil {
		v := *s.Start + delta
		out.Start = &v
	}
	if s.End != nil {
		v := *s.End + delta
		out.End = &v
	}
	return out
}

// =============================================================================
// Blocks
// =============================================================================

// Run is one styled text segment of a paragraph.
type Run struct {
	Text string  `json:"text"`
	Font string  `json:"font,omitempty"`
	Size float64 `json:"size,omitempty"`
	Span Span    `json:"span,omitzero"`
}

// Block is the tagged variant for one unit of layoutable content.
//
// Kind selects which fields are meaningful:
//   - KindParagraph: Runs (each run carries its own span)
//   - KindImage: Src, Attrs, Span
//   - KindDrawing: DrawingKind, Attrs, Span
//   - break kinds: Attrs, Span
//
// Attrs is an opaque grab-bag owned by the adapter; the core never interprets
// it and preserves every key through shifting.
type Block struct {
	Kind        Kind           `json:"kind"`
	ID          string         `json:"id"`
	Runs        []Run          `json:"runs,omitempty"`
	Src         string         `json:"src,omitempty"`
	DrawingKind string         `json:"drawing_kind,omitempty"`
	Attrs       map[string]any `json:"attrs,omitempty"`
	Span        Span           `json:"span,omitzero"`
}

// SpanBounds returns the block's overall position span. For paragraphs this
// is the union of all run spans; for every other kind it is the block span.
// The zero Span is returned when no bounds are present.
func (b Block) SpanBounds() Span {
	if b.Kind != KindParagraph {
		return b.Span
	}
	var out Span
	for _, r := range b.Runs {
		if r.Span.Start != nil && (out.Start == nil || *r.Span.Start < *out.Start) {
			v := *r.Span.Start
			out.Start = &v
		}
		if r.Span.End != nil && (out.End == nil || *r.Span.End > *out.End) {
			v := *r.Span.End
			out.End = &v
		}
	}
	return out
}

// Text returns the concatenated run text of a paragraph, empty otherwise.
func (b Block) Text() string {
	if b.Kind != KindParagraph {
		return ""
	}
	var text string
	for _, r := range b.Runs {
		text += r.Text
	}
	return text
}

// Canonical returns the canonical serialization of a block: a deterministic
// byte encoding of its full content. Two blocks with identical content always
// produce identical bytes, which makes the encoding usable both for the
// cache's verified comparison path and as content-hash input.
//
// Determinism relies on fixed struct field order and encoding/json's sorted
// map keys for Attrs.
func Canonical(b Block) ([]byte, error) {
	return json.Marshal(b)
}

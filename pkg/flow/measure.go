package flow

import "context"

// Line holds the measured geometry of one laid-out line of a paragraph.
// All values are in the measurement port's unit; the core performs no
// rounding of its own.
type Line struct {
	Ascent     float64 `json:"ascent"`
	Descent    float64 `json:"descent"`
	Width      float64 `json:"width"`
	LineHeight float64 `json:"line_height"`
}

// Measure holds the computed geometry for one block. It is immutable once
// produced and regenerated only on a cache miss.
//
// Paragraphs carry one Line per broken line; atomic blocks (images,
// drawings) carry only Height. Height is the total vertical extent either
// way.
type Measure struct {
	Lines  []Line  `json:"lines,omitempty"`
	Height float64 `json:"height"`
}

// LineCount returns the number of measured lines.
func (m Measure) LineCount() int { return len(m.Lines) }

// Splittable reports whether the measure can be divided at line boundaries
// when it straddles a page break.
func (m Measure) Splittable() bool { return len(m.Lines) > 1 }

// Measured pairs a block with its measure. The flow-block cache stores
// values of this shape so a hit restores both content and geometry.
type Measured struct {
	Block   Block   `json:"block"`
	Measure Measure `json:"measure"`
}

// MeasureFunc is the measurement port: an external, possibly expensive
// function producing a block's geometry. Implementations must be pure with
// respect to block content (identical content yields an identical measure)
// and may be called concurrently for distinct blocks.
type MeasureFunc func(ctx context.Context, b Block) (Measure, error)

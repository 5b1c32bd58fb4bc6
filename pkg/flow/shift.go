package flow

import "maps"

// ShiftBlock returns a copy of b with every position span moved by delta.
//
// Paragraph runs shift independently; absent bounds stay absent. The result
// is always a structurally fresh value: its Runs slice, Attrs map, and span
// pointers never alias the input's, even when delta is zero. Callers rely on
// copy-on-shift to detect identity changes without deep equality.
func ShiftBlock(b Block, delta int) Block {
	out := b
	out.Span = b.Span.Shift(delta)

	if b.Runs != nil {
		runs := make([]Run, len(b.Runs))
		for i, r := range b.Runs {
			r.Span = r.Span.Shift(delta)
			runs[i] = r
		}
		out.Runs = runs
	}

	if b.Attrs != nil {
		out.Attrs = maps.Clone(b.Attrs)
	}

	return out
}

// ShiftBlocks applies ShiftBlock element-wise, returning a new slice.
//
// This is the reuse path for edits that insert or remove content upstream of
// a cached region: previously computed geometry stays valid once its recorded
// positions slide by the edit's length delta, so the cache entries survive
// instead of being invalidated.
func ShiftBlocks(blocks []Block, delta int) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = ShiftBlock(b, delta)
	}
	return out
}

// ShiftMeasured slides the positions of cached measured blocks by delta while
// keeping their measures. Measures depend only on content, never on document
// positions, so they carry over unchanged.
func ShiftMeasured(blocks []Measured, delta int) []Measured {
	out := make([]Measured, len(blocks))
	for i, mb := range blocks {
		out[i] = Measured{
			Block:   ShiftBlock(mb.Block, delta),
			Measure: mb.Measure,
		}
	}
	return out
}

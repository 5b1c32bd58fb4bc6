// Package flow defines the block model consumed by the pagination core.
//
// A document arrives as a flat, ordered sequence of [Block] values produced by
// an external document-tree adapter. Each block is one unit of layoutable
// content: a paragraph, an image, a drawing, or a break. Blocks are immutable
// within one layout pass and carry a stable id that keys the flow-block cache
// and links footnote references to their bodies.
//
// # Position spans
//
// Blocks and paragraph runs may carry an optional [Span]: a pair of positions
// in the adapter's document coordinate space. Spans exist only to resolve
// which page a footnote reference lands on; the layout itself never reads
// them. The shift algebra ([ShiftBlock], [ShiftBlocks]) slides spans by a
// delta so geometry cached before an edit stays valid after content is
// inserted or removed upstream of it.
//
// # Measurement
//
// Geometry comes from an external measurement port, expressed here as
// [MeasureFunc]. Measures are pure functions of block content: identical
// content always measures identically, which is what makes both the
// generation cache and the persistent measure store sound.
package flow

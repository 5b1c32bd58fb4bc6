// Package paginate implements the pagination engine: it distributes a
// measured block sequence onto discrete pages with exact fragment placement.
//
// The engine is a single synchronous walk over the blocks. Each page offers
// a content band of pageHeight − topMargin − bottomMargin − footnoteReserved;
// paragraphs split at line boundaries when they straddle a page break, atomic
// blocks (images, drawings) move whole, and break blocks force a new page
// unconditionally. Footnote bodies land in a dedicated band at the bottom of
// the page owning their reservation, below the body band's lower boundary.
//
// The engine performs no unit conversion or rounding of its own: heights are
// whatever the measurement port produced, in one consistent unit.
package paginate

import (
	"sort"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

// Footnote band constants shared by the engine and the reserve computation.
// The reservation for a page is the sum of its footnote body heights plus
// these two values, so the band fits its content exactly.
const (
	DefaultFootnoteTopPadding    = 8.0
	DefaultFootnoteDividerHeight = 1.0
)

// Document bundles one pagination input: the ordered body blocks, their
// measures keyed by block id, and the footnote bodies already assigned to
// pages by the reserve orchestrator (empty on the first pass).
type Document struct {
	Blocks          []flow.Block
	Measures        map[string]flow.Measure
	FootnotesByPage map[int][]flow.Measured
}

// Engine paginates documents under a fixed geometry.
type Engine struct {
	Geometry              Geometry
	FootnoteTopPadding    float64
	FootnoteDividerHeight float64
}

// NewEngine creates an engine with the default footnote band constants.
func NewEngine(geom Geometry) *Engine {
	return &Engine{
		Geometry:              geom,
		FootnoteTopPadding:    DefaultFootnoteTopPadding,
		FootnoteDividerHeight: DefaultFootnoteDividerHeight,
	}
}

// Layout paginates the document under the given per-page footnote
// reservation vector. Pages beyond the vector's length carry a zero
// reservation.
//
// The only failure a caller cannot avoid structurally is
// ErrCodeGeometryTooSmall: a line or atomic block taller than the full
// zero-reserve band can never be placed. Everything else, including content
// that does not fit a reserved band, resolves by spilling to a later page.
func (e *Engine) Layout(doc Document, reserved []float64) (Layout, error) {
	if err := e.Geometry.Validate(); err != nil {
		return Layout{}, err
	}

	p := &pager{geom: e.Geometry, reserved: reserved}
	p.open()

	for _, b := range doc.Blocks {
		if b.Kind.IsBreak() {
			p.open()
			continue
		}

		m, ok := doc.Measures[b.ID]
		if !ok {
			return Layout{}, errors.New(errors.ErrCodeInvalidDocument, "no measure for block %q", b.ID)
		}

		var err error
		if m.Splittable() {
			err = p.placeLines(b.ID, m.Lines)
		} else {
			err = p.placeAtomic(b.ID, m)
		}
		if err != nil {
			return Layout{}, err
		}
	}

	p.placeFootnotes(doc.FootnotesByPage, e.FootnoteTopPadding, e.FootnoteDividerHeight)

	return Layout{Pages: p.pages}, nil
}

// pager tracks the page under construction during one engine walk.
type pager struct {
	geom     Geometry
	reserved []float64
	pages    []Page
	cursor   float64
}

// reservedAt returns the reservation for a page index; indices beyond the
// vector carry zero.
func (p *pager) reservedAt(i int) float64 {
	if i < len(p.reserved) {
		return p.reserved[i]
	}
	return 0
}

// open closes the current page and starts the next one.
func (p *pager) open() {
	idx := len(p.pages)
	p.pages = append(p.pages, Page{
		Index:            idx,
		Size:             p.geom.Size,
		Margins:          p.geom.Margins,
		FootnoteReserved: p.reservedAt(idx),
	})
	p.cursor = p.geom.Margins.Top
}

func (p *pager) current() *Page {
	return &p.pages[len(p.pages)-1]
}

// remaining returns the vertical space left in the current page's body band.
func (p *pager) remaining() float64 {
	return p.current().BandBottom() - p.cursor
}

// advance opens pages until h fits the current band. A fresh page past the
// reservation vector offers the full zero-reserve band, so the loop
// terminates whenever h passed the fitsBand check.
func (p *pager) advance(h float64) error {
	if h > p.geom.ContentHeight() {
		return errors.New(errors.ErrCodeGeometryTooSmall,
			"content height %g exceeds the page band %g", h, p.geom.ContentHeight())
	}
	for h > p.remaining() {
		p.open()
	}
	return nil
}

// place appends a fragment at the cursor and moves the cursor past it.
func (p *pager) place(blockID string, h float64, firstLine, lineCount int) {
	page := p.current()
	page.Fragments = append(page.Fragments, Fragment{
		BlockID:   blockID,
		Y:         p.cursor,
		Height:    h,
		FirstLine: firstLine,
		LineCount: lineCount,
	})
	p.cursor += h
}

// placeAtomic places a block that moves whole.
func (p *pager) placeAtomic(blockID string, m flow.Measure) error {
	if err := p.advance(m.Height); err != nil {
		return err
	}
	p.place(blockID, m.Height, 0, m.LineCount())
	return nil
}

// placeLines places a multi-line paragraph, splitting it at page boundaries.
// Contiguous lines on one page collapse into a single fragment.
func (p *pager) placeLines(blockID string, lines []flow.Line) error {
	first := -1
	var top, acc float64

	flush := func(end int) {
		if first >= 0 {
			pageFragment := Fragment{
				BlockID:   blockID,
				Y:         top,
				Height:    acc,
				FirstLine: first,
				LineCount: end - first,
			}
			page := p.current()
			page.Fragments = append(page.Fragments, pageFragment)
		}
	}

	for i, ln := range lines {
		h := ln.LineHeight
		if h > p.remaining() {
			flush(i)
			first = -1
			acc = 0
			if err := p.advance(h); err != nil {
				return err
			}
		}
		if first < 0 {
			first = i
			top = p.cursor
		}
		p.cursor += h
		acc += h
	}
	flush(len(lines))
	return nil
}

// placeFootnotes lays footnote bodies into each owning page's footnote band,
// top padding and divider first, bodies stacked below. Assignments past the
// produced page count clamp to the last page so the layout stays
// self-consistent.
func (p *pager) placeFootnotes(byPage map[int][]flow.Measured, topPadding, dividerHeight float64) {
	indices := make([]int, 0, len(byPage))
	for idx := range byPage {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		pi := idx
		if pi > len(p.pages)-1 {
			pi = len(p.pages) - 1
		}
		if pi < 0 {
			continue
		}
		page := &p.pages[pi]

		y := page.BandBottom() + topPadding + dividerHeight
		for _, note := range byPage[idx] {
			page.Fragments = append(page.Fragments, Fragment{
				BlockID:   FootnoteFragmentID(note.Block.ID),
				Y:         y,
				Height:    note.Measure.Height,
				LineCount: note.Measure.LineCount(),
			})
			y += note.Measure.Height
		}
	}
}

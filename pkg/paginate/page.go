package paginate

import "strings"

// footnoteFragmentPrefix tags footnote-body fragments so the body and
// footnote bands can be told apart without a side table.
const footnoteFragmentPrefix = "footnote/"

// FootnoteFragmentID returns the fragment id for a footnote body block.
func FootnoteFragmentID(blockID string) string {
	return footnoteFragmentPrefix + blockID
}

// IsFootnoteFragment reports whether a fragment id belongs to the footnote
// band.
func IsFootnoteFragment(id string) bool {
	return strings.HasPrefix(id, footnoteFragmentPrefix)
}

// FootnoteBlockID strips the footnote prefix, returning the underlying
// block id. Body fragment ids pass through unchanged.
func FootnoteBlockID(id string) string {
	return strings.TrimPrefix(id, footnoteFragmentPrefix)
}

// Fragment is the placed occurrence of a block (or part of one) on a page.
// Y is the fragment's top edge measured from the page's top. For split
// paragraphs, FirstLine and LineCount identify which measured lines the
// fragment covers.
type Fragment struct {
	BlockID   string  `json:"block_id"`
	Y         float64 `json:"y"`
	Height    float64 `json:"height"`
	FirstLine int     `json:"first_line,omitempty"`
	LineCount int     `json:"line_count,omitempty"`
}

// Bottom returns the fragment's bottom edge.
func (f Fragment) Bottom() float64 { return f.Y + f.Height }

// Page is one produced page with its placed fragments.
type Page struct {
	Index            int        `json:"index"`
	Size             PageSize   `json:"size"`
	Margins          Margins    `json:"margins"`
	FootnoteReserved float64    `json:"footnote_reserved"`
	Fragments        []Fragment `json:"fragments"`
}

// BandBottom returns the lower boundary of the body band: the line below
// which no body fragment may extend. The footnote band, when reserved,
// starts here.
func (p Page) BandBottom() float64 {
	return p.Size.Height - p.Margins.Bottom - p.FootnoteReserved
}

// BodyFragments returns the fragments placed in the body band.
func (p Page) BodyFragments() []Fragment {
	var out []Fragment
	for _, f := range p.Fragments {
		if !IsFootnoteFragment(f.BlockID) {
			out = append(out, f)
		}
	}
	return out
}

// FootnoteFragments returns the fragments placed in the footnote band.
func (p Page) FootnoteFragments() []Fragment {
	var out []Fragment
	for _, f := range p.Fragments {
		if IsFootnoteFragment(f.BlockID) {
			out = append(out, f)
		}
	}
	return out
}

// Layout is the pagination result handed to the external renderer.
// Fragment positions and reservations are authoritative placement; no
// further layout computation is expected downstream.
type Layout struct {
	Pages []Page `json:"pages"`
}

// PageCount returns the number of pages.
func (l Layout) PageCount() int { return len(l.Pages) }

// PageOf returns the index of the first page holding a body fragment of the
// given block, or -1 when the block was not placed.
func (l Layout) PageOf(blockID string) int {
	for _, p := range l.Pages {
		for _, f := range p.Fragments {
			if f.BlockID == blockID {
				return p.Index
			}
		}
	}
	return -1
}

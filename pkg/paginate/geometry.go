package paginate

import (
	"strings"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
)

// PageSize is a page's outer dimensions in the measurement port's unit.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Name   string  `json:"name,omitempty"`
}

// Standard page sizes in points (1/72 inch).
var (
	PageSizeA4     = PageSize{Width: 595.28, Height: 841.89, Name: "A4"}
	PageSizeLetter = PageSize{Width: 612.00, Height: 792.00, Name: "Letter"}
	PageSizeLegal  = PageSize{Width: 612.00, Height: 1008.00, Name: "Legal"}
	PageSizeA3     = PageSize{Width: 841.89, Height: 1190.55, Name: "A3"}
	PageSizeA5     = PageSize{Width: 419.53, Height: 595.28, Name: "A5"}
)

// PageSizeByName looks up a standard page size by its case-insensitive name.
func PageSizeByName(name string) (PageSize, bool) {
	switch strings.ToLower(name) {
	case "a4":
		return PageSizeA4, true
	case "letter":
		return PageSizeLetter, true
	case "legal":
		return PageSizeLegal, true
	case "a3":
		return PageSizeA3, true
	case "a5":
		return PageSizeA5, true
	}
	return PageSize{}, false
}

// Margins are the page margins.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Geometry bundles the page dimensions and margins used for one layout.
type Geometry struct {
	Size    PageSize `json:"size"`
	Margins Margins  `json:"margins"`
}

// ContentWidth returns the horizontal extent available to content.
func (g Geometry) ContentWidth() float64 {
	return g.Size.Width - g.Margins.Left - g.Margins.Right
}

// ContentHeight returns the vertical extent available to content with no
// footnote reservation.
func (g Geometry) ContentHeight() float64 {
	return g.Size.Height - g.Margins.Top - g.Margins.Bottom
}

// Validate checks that the geometry can hold content at all.
func (g Geometry) Validate() error {
	if g.Size.Width <= 0 || g.Size.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidGeometry, "page size %gx%g must be positive", g.Size.Width, g.Size.Height)
	}
	if g.Margins.Top < 0 || g.Margins.Right < 0 || g.Margins.Bottom < 0 || g.Margins.Left < 0 {
		return errors.New(errors.ErrCodeInvalidGeometry, "margins must be non-negative")
	}
	if g.ContentWidth() <= 0 {
		return errors.New(errors.ErrCodeInvalidGeometry, "horizontal margins leave no content width")
	}
	if g.ContentHeight() <= 0 {
		return errors.New(errors.ErrCodeGeometryTooSmall, "vertical margins leave no content height")
	}
	return nil
}

package cli

import (
	"context"
	"strings"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

// Typographic ratios for the built-in measurer. Real deployments plug in a
// font-aware measurement port; these approximations keep the CLI usable
// without one.
const (
	defaultFontSize    = 12.0
	charWidthRatio     = 0.55
	lineHeightRatio    = 1.4
	ascentRatio        = 0.8
	defaultImageHeight = 120.0
)

// textMeasurer returns a measurement port that wraps paragraph text at the
// given content width using fixed per-character advances. Images and
// drawings take their height from the "height" attribute when present.
func textMeasurer(contentWidth float64) flow.MeasureFunc {
	return func(ctx context.Context, b flow.Block) (flow.Measure, error) {
		switch b.Kind {
		case flow.KindParagraph:
			return measureText(b, contentWidth)
		case flow.KindImage, flow.KindDrawing:
			h := defaultImageHeight
			if v, ok := b.Attrs["height"].(float64); ok && v > 0 {
				h = v
			}
			return flow.Measure{Height: h}, nil
		}
		return flow.Measure{}, errors.New(errors.ErrCodeUnsupported, "cannot measure block kind %q", b.Kind)
	}
}

func measureText(b flow.Block, contentWidth float64) (flow.Measure, error) {
	size := defaultFontSize
	for _, r := range b.Runs {
		if r.Size > 0 {
			size = r.Size
			break
		}
	}
	charWidth := size * charWidthRatio
	lineHeight := size * lineHeightRatio
	perLine := int(contentWidth / charWidth)
	if perLine < 1 {
		perLine = 1
	}

	words := strings.Fields(b.Text())
	var lines []flow.Line
	width := 0
	newLine := func(w int) flow.Line {
		return flow.Line{
			Ascent:     size * ascentRatio,
			Descent:    size * (1 - ascentRatio),
			Width:      float64(w) * charWidth,
			LineHeight: lineHeight,
		}
	}
	for _, word := range words {
		need := len(word)
		if width > 0 {
			need++ // separating space
		}
		if width > 0 && width+need > perLine {
			lines = append(lines, newLine(width))
			width = len(word)
			continue
		}
		width += need
	}
	if width > 0 || len(lines) == 0 {
		lines = append(lines, newLine(width))
	}

	var height float64
	for _, ln := range lines {
		height += ln.LineHeight
	}
	return flow.Measure{Lines: lines, Height: height}, nil
}

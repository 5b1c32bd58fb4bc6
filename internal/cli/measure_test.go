package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

func para(id, text string) flow.Block {
	return flow.Block{Kind: flow.KindParagraph, ID: id, Runs: []flow.Run{{Text: text, Size: 12}}}
}

func TestTextMeasurerWrapsAtWidth(t *testing.T) {
	// 12pt text advances 6.6 per character: a 66-unit line fits 10
	// characters.
	measure := textMeasurer(66)
	ctx := context.Background()

	m, err := measure(ctx, para("p1", strings.Repeat("word ", 8)+"word"))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if m.LineCount() < 2 {
		t.Errorf("LineCount = %d, want wrapping across lines", m.LineCount())
	}
	for i, ln := range m.Lines {
		if ln.Width > 66+1e-9 {
			t.Errorf("line %d width = %g exceeds content width", i, ln.Width)
		}
		if ln.LineHeight != 12*lineHeightRatio {
			t.Errorf("line %d height = %g", i, ln.LineHeight)
		}
	}
	var sum float64
	for _, ln := range m.Lines {
		sum += ln.LineHeight
	}
	if m.Height != sum {
		t.Errorf("Height = %g, want sum of line heights %g", m.Height, sum)
	}
}

func TestTextMeasurerEmptyParagraph(t *testing.T) {
	measure := textMeasurer(200)

	m, err := measure(context.Background(), para("p1", ""))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if m.LineCount() != 1 {
		t.Errorf("LineCount = %d, want a single empty line", m.LineCount())
	}
}

func TestTextMeasurerImageHeights(t *testing.T) {
	measure := textMeasurer(200)
	ctx := context.Background()

	img := flow.Block{Kind: flow.KindImage, ID: "img1", Src: "figure.png"}
	m, err := measure(ctx, img)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if m.Height != defaultImageHeight {
		t.Errorf("Height = %g, want default %g", m.Height, defaultImageHeight)
	}

	img.Attrs = map[string]any{"height": 250.0}
	m, err = measure(ctx, img)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if m.Height != 250 {
		t.Errorf("Height = %g, want attribute value 250", m.Height)
	}
	if m.Splittable() {
		t.Error("images must be atomic")
	}
}

func TestTextMeasurerUnsupportedKind(t *testing.T) {
	measure := textMeasurer(200)

	_, err := measure(context.Background(), flow.Block{Kind: flow.KindPageBreak, ID: "br1"})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("error = %v, want UNSUPPORTED", err)
	}
}

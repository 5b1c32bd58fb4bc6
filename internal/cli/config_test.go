package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JoaaoVerona/pageflow/pkg/reflow"
)

func TestLoadConfigDefaults(t *testing.T) {
	// No file in a fresh directory falls back to defaults.
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Page.Size != "a4" {
		t.Errorf("Page.Size = %q, want a4", cfg.Page.Size)
	}
	if cfg.Page.Margins.Top != 72 {
		t.Errorf("Margins.Top = %g, want 72", cfg.Page.Margins.Top)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageflow.toml")
	content := `
[page]
size = "letter"

[page.margins]
top = 36
right = 36
bottom = 36
left = 36

[footnotes]
top_padding = 10
divider_height = 2
max_passes = 4

[store]
backend = "memory"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	geom, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if geom.Size.Width != 612 || geom.Size.Height != 792 {
		t.Errorf("letter size = %gx%g, want 612x792", geom.Size.Width, geom.Size.Height)
	}
	if geom.Margins.Top != 36 {
		t.Errorf("Margins.Top = %g, want 36", geom.Margins.Top)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.FootnoteTopPadding != 10 || opts.FootnoteDividerHeight != 2 {
		t.Errorf("band constants = %g/%g, want 10/2", opts.FootnoteTopPadding, opts.FootnoteDividerHeight)
	}
	if opts.MaxPasses != 4 {
		t.Errorf("MaxPasses = %d, want 4", opts.MaxPasses)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestConfigUnknownPageSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Page.Size = "b17"
	if _, err := cfg.Geometry(); err == nil {
		t.Error("expected error for unknown page size")
	}
}

func TestConfigExplicitDimensionsOverridePreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Page.Width = 200
	cfg.Page.Height = 300

	geom, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if geom.Size.Width != 200 || geom.Size.Height != 300 {
		t.Errorf("size = %gx%g, want 200x300", geom.Size.Width, geom.Size.Height)
	}
}

func TestConfigOptionsValidate(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("default config should yield valid options: %v", err)
	}
	if opts.MaxPasses != reflow.DefaultMaxPasses {
		t.Errorf("MaxPasses = %d, want default %d", opts.MaxPasses, reflow.DefaultMaxPasses)
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/JoaaoVerona/pageflow/pkg/paginate"
	"github.com/JoaaoVerona/pageflow/pkg/reflow"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given.
const defaultConfigFile = "pageflow.toml"

// Config is the TOML configuration file format.
//
// Example:
//
//	[page]
//	size = "a4"
//
//	[page.margins]
//	top = 72
//	right = 72
//	bottom = 72
//	left = 72
//
//	[footnotes]
//	top_padding = 8
//	divider_height = 1
//	max_passes = 8
//
//	[store]
//	backend = "file"
type Config struct {
	Page      PageConfig      `toml:"page"`
	Footnotes FootnotesConfig `toml:"footnotes"`
	Store     StoreConfig     `toml:"store"`
}

// PageConfig selects the page geometry. Size names a preset; explicit Width
// and Height override it.
type PageConfig struct {
	Size    string        `toml:"size"`
	Width   float64       `toml:"width"`
	Height  float64       `toml:"height"`
	Margins MarginsConfig `toml:"margins"`
}

// MarginsConfig holds the page margins.
type MarginsConfig struct {
	Top    float64 `toml:"top"`
	Right  float64 `toml:"right"`
	Bottom float64 `toml:"bottom"`
	Left   float64 `toml:"left"`
}

// FootnotesConfig tunes the footnote band and the reserve loop.
type FootnotesConfig struct {
	TopPadding    float64 `toml:"top_padding"`
	DividerHeight float64 `toml:"divider_height"`
	MaxPasses     int     `toml:"max_passes"`
}

// StoreConfig selects the measure store backend.
type StoreConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
}

// DefaultConfig returns the configuration used when no file is present: A4
// pages with one-inch margins and the file-backed store.
func DefaultConfig() Config {
	return Config{
		Page: PageConfig{
			Size:    "a4",
			Margins: MarginsConfig{Top: 72, Right: 72, Bottom: 72, Left: 72},
		},
		Store: StoreConfig{Backend: "file"},
	}
}

// LoadConfig reads a TOML configuration file. An empty path tries the
// default file name and falls back to DefaultConfig when it does not exist.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return Config{}, fmt.Errorf("config file %s not found", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Geometry resolves the configured page geometry.
func (c Config) Geometry() (paginate.Geometry, error) {
	size, ok := paginate.PageSizeByName(c.Page.Size)
	if c.Page.Size != "" && !ok {
		return paginate.Geometry{}, fmt.Errorf("unknown page size %q", c.Page.Size)
	}
	if c.Page.Width > 0 {
		size.Width = c.Page.Width
	}
	if c.Page.Height > 0 {
		size.Height = c.Page.Height
	}
	return paginate.Geometry{
		Size: size,
		Margins: paginate.Margins{
			Top:    c.Page.Margins.Top,
			Right:  c.Page.Margins.Right,
			Bottom: c.Page.Margins.Bottom,
			Left:   c.Page.Margins.Left,
		},
	}, nil
}

// Options resolves the configuration into run options.
func (c Config) Options() (reflow.Options, error) {
	geom, err := c.Geometry()
	if err != nil {
		return reflow.Options{}, err
	}
	return reflow.Options{
		Geometry:              geom,
		FootnoteTopPadding:    c.Footnotes.TopPadding,
		FootnoteDividerHeight: c.Footnotes.DividerHeight,
		MaxPasses:             c.Footnotes.MaxPasses,
	}, nil
}

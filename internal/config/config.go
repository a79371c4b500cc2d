package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/canvasforge/internal/barcode"
	"github.com/dshills/canvasforge/internal/config/loader"
)

// FileName is the configuration file name looked up in the user config
// directory.
const FileName = "canvasforge.toml"

// Config is the editor configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Logging LoggingConfig `toml:"logging"`
	Shapes  ShapesConfig  `toml:"shapes"`
	Barcode BarcodeConfig `toml:"barcode"`

	// Keys rebinds actions, for example "history.redo" = ["ctrl+y"].
	Keys map[string][]string `toml:"keys"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// HistoryConfig configures the undo timeline.
type HistoryConfig struct {
	// Limit is the maximum number of snapshots kept.
	Limit int `toml:"limit"`

	// ExtraFields are custom object fields included in snapshots besides id.
	ExtraFields []string `toml:"extraFields"`
}

// CanvasConfig configures the scene.
type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// ShapesConfig holds the defaults of objects added from the palette.
type ShapesConfig struct {
	Circle CircleConfig `toml:"circle"`
	Text   TextConfig   `toml:"text"`
}

// CircleConfig holds new-circle defaults.
type CircleConfig struct {
	Left        float64 `toml:"left"`
	Top         float64 `toml:"top"`
	Radius      float64 `toml:"radius"`
	Fill        string  `toml:"fill"`
	Stroke      string  `toml:"stroke"`
	StrokeWidth float64 `toml:"strokeWidth"`
}

// TextConfig holds new-text defaults.
type TextConfig struct {
	Left     float64 `toml:"left"`
	Top      float64 `toml:"top"`
	Text     string  `toml:"text"`
	FontSize float64 `toml:"fontSize"`
	Fill     string  `toml:"fill"`
}

// BarcodeConfig holds new-barcode defaults.
type BarcodeConfig struct {
	Type    string          `toml:"type"`
	Left    float64         `toml:"left"`
	Top     float64         `toml:"top"`
	Options barcode.Options `toml:"options"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{Limit: 50},
		Canvas: CanvasConfig{
			Width:      800,
			Height:     600,
			Background: "#ffffff",
		},
		Logging: LoggingConfig{Level: "info"},
		Shapes: ShapesConfig{
			Circle: CircleConfig{
				Left:        200,
				Top:         200,
				Radius:      40,
				Fill:        "lightpink",
				Stroke:      "red",
				StrokeWidth: 2,
			},
			Text: TextConfig{
				Left:     100,
				Top:      100,
				Text:     "Edit me",
				FontSize: 20,
				Fill:     "blue",
			},
		},
		Barcode: BarcodeConfig{
			Type:    string(barcode.TypeCode128),
			Left:    120,
			Top:     120,
			Options: barcode.DefaultOptions(),
		},
	}
}

// DefaultPath returns the configuration file in the user config directory,
// or "" if that directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "canvasforge", FileName)
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	fs  loader.FileSystem
	env loader.Loader
}

// WithFS reads the configuration file through fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnv replaces the environment source. Pass nil to ignore the
// environment.
func WithEnv(env loader.Loader) Option {
	return func(o *loadOptions) {
		o.env = env
	}
}

// Load builds the configuration from the defaults, the TOML file at path
// and the CANVASFORGE_* environment, later sources overriding earlier ones.
// A missing file is not an error. The result is validated.
func Load(path string, opts ...Option) (*Config, error) {
	o := loadOptions{
		fs:  loader.DefaultFS(),
		env: loader.NewEnvLoader(loader.DefaultPrefix),
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	file, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, file)

	if o.env != nil {
		env, err := o.env.Load()
		if err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	if file != nil {
		cfg.Path = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap converts a Config into the generic map form the loaders produce.
func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// fromMap decodes a merged configuration map. Unknown keys are ignored so
// unrelated CANVASFORGE_* variables do not break loading.
func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}

	var cfg Config
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		return nil, &TypeError{Err: err}
	}
	return &cfg, nil
}

// Encode returns the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// LogLevels are the accepted values of logging.level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs ErrorList

	if c.History.Limit < 1 {
		errs.Add(&ValidationError{Path: "history.limit", Message: "must be at least 1", Value: c.History.Limit})
	}
	for _, f := range c.History.ExtraFields {
		if strings.TrimSpace(f) == "" {
			errs.Add(&ValidationError{Path: "history.extraFields", Message: "field names must not be empty", Value: f})
		}
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs.Add(&ValidationError{
			Path:    "canvas",
			Message: "width and height must be positive",
			Value:   fmt.Sprintf("%dx%d", c.Canvas.Width, c.Canvas.Height),
		})
	}
	if !validLevel(c.Logging.Level) {
		errs.Add(&ValidationError{
			Path:    "logging.level",
			Message: "must be one of " + strings.Join(LogLevels, ", "),
			Value:   c.Logging.Level,
		})
	}
	if c.Shapes.Circle.Radius <= 0 {
		errs.Add(&ValidationError{Path: "shapes.circle.radius", Message: "must be positive", Value: c.Shapes.Circle.Radius})
	}
	if c.Shapes.Text.FontSize <= 0 {
		errs.Add(&ValidationError{Path: "shapes.text.fontSize", Message: "must be positive", Value: c.Shapes.Text.FontSize})
	}
	if _, err := barcode.ParseType(c.Barcode.Type); err != nil {
		errs.Add(&ValidationError{Path: "barcode.type", Message: "unknown barcode type", Value: c.Barcode.Type})
	}
	if c.Barcode.Options.BarWidth <= 0 || c.Barcode.Options.BarHeight <= 0 {
		errs.Add(&ValidationError{Path: "barcode.options", Message: "bar width and height must be positive", Value: c.Barcode.Options})
	}

	return errs.Err()
}

func validLevel(level string) bool {
	for _, l := range LogLevels {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

// BarcodeType returns the configured default symbology.
func (c *Config) BarcodeType() barcode.Type {
	t, err := barcode.ParseType(c.Barcode.Type)
	if err != nil {
		return barcode.TypeCode128
	}
	return t
}

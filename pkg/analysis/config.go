package analysis

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects which family of checks a run performs.
type Mode string

const (
	ModeRouter   Mode = "router"
	ModeUnloader Mode = "unloader"
	ModeWave     Mode = "wave"
	ModePress    Mode = "press"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeRouter, ModeUnloader, ModeWave, ModePress}

// ParseMode returns the mode named s, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("analysis: unknown mode %q", s)
}

// fixture reports whether the mode runs the router/press checks.
func (m Mode) fixture() bool {
	return m == ModeRouter || m == ModePress
}

// bridgesSilk reports whether open silkscreen strokes are ray-bridged.
func (m Mode) bridgesSilk() bool {
	return m != ModeUnloader
}

// Config is the full configuration of a run.
type Config struct {
	Mode     Mode         `json:"mode" yaml:"mode"`
	Layers   LayerConfig  `json:"layers" yaml:"layers"`
	Params   Params       `json:"params" yaml:"params"`
	Stitch   StitchConfig `json:"stitch" yaml:"stitch"`
	Output   OutputConfig `json:"output" yaml:"output"`
	LogLevel string       `json:"log_level" yaml:"log_level"`
}

// LayerConfig names the drawing layers playing each role.
type LayerConfig struct {
	Selected     []string `json:"selected" yaml:"selected"`
	Botsilk      string   `json:"botsilk" yaml:"botsilk"`
	Botpaste     string   `json:"botpaste" yaml:"botpaste"`
	Botmask      string   `json:"botmask" yaml:"botmask"`
	Open         string   `json:"open" yaml:"open"`
	BoardSink    string   `json:"board_sink" yaml:"board_sink"`
	FixedPin     string   `json:"fixed_pin" yaml:"fixed_pin"`
	SupportPin   string   `json:"support_pin" yaml:"support_pin"`
	SupportBlock string   `json:"support_block" yaml:"support_block"`
	StopBlock    string   `json:"stop_block" yaml:"stop_block"`
	Pressfit     string   `json:"pressfit" yaml:"pressfit"`
}

// Params are the design-rule distances, in drawing units (mm).
type Params struct {
	DR            float64 `json:"dr" yaml:"dr"`
	AreaBound     float64 `json:"area_bound" yaml:"area_bound"`
	DBoard        float64 `json:"d_board" yaml:"d_board"`
	DO            float64 `json:"do" yaml:"do"`
	DL            float64 `json:"dl" yaml:"dl"`
	DW            float64 `json:"dw" yaml:"dw"`
	SBKeepDist    float64 `json:"sb_keep_dist" yaml:"sb_keep_dist"`
	BlockKeepDist float64 `json:"block_keep_dist" yaml:"block_keep_dist"`
	DistSupport   float64 `json:"dist_support" yaml:"dist_support"`
}

// StitchConfig tunes chain reconstruction.
type StitchConfig struct {
	MaxJoins        int     `json:"max_joins" yaml:"max_joins"`
	RaySearchLength float64 `json:"ray_search_length" yaml:"ray_search_length"`
	SilkMinEdge     float64 `json:"silk_min_edge" yaml:"silk_min_edge"`
	ArcTolerance    float64 `json:"arc_tolerance" yaml:"arc_tolerance"`
}

// OutputConfig selects the exported artifacts.
type OutputConfig struct {
	Dir      string  `json:"dir" yaml:"dir"`
	DXF      bool    `json:"dxf" yaml:"dxf"`
	JSON     bool    `json:"json" yaml:"json"`
	PNG      bool    `json:"png" yaml:"png"`
	PNGScale float64 `json:"png_scale" yaml:"png_scale"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Mode: ModeUnloader,
		Params: Params{
			DR:            3.0,
			AreaBound:     500,
			DBoard:        0.2,
			DO:            1.0,
			DL:            12,
			DW:            3,
			SBKeepDist:    3,
			BlockKeepDist: 3,
			DistSupport:   3,
		},
		Stitch: StitchConfig{
			MaxJoins:        20,
			RaySearchLength: 30,
			SilkMinEdge:     0.8,
			ArcTolerance:    1e-3,
		},
		Output: OutputConfig{
			Dir:      ".",
			DXF:      true,
			JSON:     true,
			PNGScale: 4,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("analysis: load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("analysis: parse config %s: %w", path, err)
	}
	if cfg.Mode != "" {
		m, err := ParseMode(string(cfg.Mode))
		if err != nil {
			return cfg, err
		}
		cfg.Mode = m
	}
	return cfg, nil
}

// Validate checks the numeric parameters. Layer roles are checked against
// the drawing by the Runner.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, &ConfigurationError{Role: "mode", Reason: err.Error()})
	}
	positive := []struct {
		name string
		v    float64
	}{
		{"dr", c.Params.DR},
		{"area_bound", c.Params.AreaBound},
		{"d_board", c.Params.DBoard},
		{"do", c.Params.DO},
		{"dl", c.Params.DL},
		{"dw", c.Params.DW},
		{"sb_keep_dist", c.Params.SBKeepDist},
		{"block_keep_dist", c.Params.BlockKeepDist},
		{"dist_support", c.Params.DistSupport},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			errs = append(errs, &ConfigurationError{
				Role:   p.name,
				Reason: fmt.Sprintf("must be positive, got %g", p.v),
			})
		}
	}
	return errors.Join(errs...)
}

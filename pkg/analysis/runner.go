package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/fixturedrc/pkg/drawing"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/google/uuid"
)

// Runner performs the checks of one mode over a drawing.
type Runner struct {
	Config Config
	Kernel kernel.Kernel
}

// NewRunner returns a runner for cfg backed by k.
func NewRunner(cfg Config, k kernel.Kernel) *Runner {
	return &Runner{Config: cfg, Kernel: k}
}

// role is a layer role required by a mode.
type role struct {
	name  string
	layer string
}

func (r *Runner) roles() []role {
	l := r.Config.Layers
	if r.Config.Mode.fixture() {
		return []role{
			{"botsilk", l.Botsilk},
			{"botpaste", l.Botpaste},
			{"fixed_pin", l.FixedPin},
			{"support_pin", l.SupportPin},
			{"support_block", l.SupportBlock},
			{"stop_block", l.StopBlock},
			{"pressfit", l.Pressfit},
		}
	}
	return []role{
		{"botsilk", l.Botsilk},
		{"botpaste", l.Botpaste},
		{"botmask", l.Botmask},
		{"open", l.Open},
		{"board_sink", l.BoardSink},
	}
}

// checkRoles returns one ConfigurationError per distinct cause: a role not
// configured, a layer absent from the drawing or a layer with no entity.
func (r *Runner) checkRoles(d *drawing.Drawing) error {
	var errs []error
	seen := make(map[string]bool)
	fail := func(layer, role, reason string) {
		key := layer + "\x00" + reason
		if layer == "" {
			key = role + "\x00" + reason
		}
		if seen[key] {
			return
		}
		seen[key] = true
		errs = append(errs, &ConfigurationError{Layer: layer, Role: role, Reason: reason})
	}
	check := func(role, layer string) {
		if layer == "" {
			fail("", role, "not configured")
			return
		}
		dl := d.Layer(layer)
		switch {
		case dl == nil:
			fail(layer, role, "not found in drawing")
		case len(dl.Entities) == 0:
			fail(layer, role, "layer is empty")
		}
	}

	if len(r.Config.Layers.Selected) == 0 {
		fail("", "selected", "no selected layer")
	}
	for _, name := range r.Config.Layers.Selected {
		check("selected", name)
	}
	for _, ro := range r.roles() {
		check(ro.name, ro.layer)
	}
	return errors.Join(errs...)
}

// Run validates the configuration against d, prepares the layers and runs
// every check of the mode. Configuration errors are returned before any
// work and no report is produced.
func (r *Runner) Run(ctx context.Context, d *drawing.Drawing) (*Report, error) {
	if d == nil {
		return nil, fmt.Errorf("analysis: run: nil drawing")
	}
	if err := errors.Join(r.Config.Validate(), r.checkRoles(d)); err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:   uuid.New(),
		Mode:    r.Config.Mode,
		Params:  r.Config.Params,
		Started: time.Now(),
	}
	log := Logger().With("run_id", rep.RunID.String(), "mode", string(rep.Mode))
	log.Info("analysis started", "count", len(d.Layers))

	c := NewContext(r.Config, r.Kernel, d)
	var roleLayers []string
	for _, ro := range r.roles() {
		roleLayers = append(roleLayers, ro.layer)
	}
	if err := c.Prepare(ctx, append(append([]string{}, r.Config.Layers.Selected...), roleLayers...)); err != nil {
		return nil, fmt.Errorf("analysis: prepare layers: %w", err)
	}

	st := &run{c: c, rep: rep}
	var steps []func()
	if r.Config.Mode.fixture() {
		steps = []func(){st.interference, st.stopBlock, st.pins, st.pressfit}
	} else {
		steps = []func(){st.interference, st.openComponents, st.boardGap, st.thruThickness, st.connectGroove}
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis: run: %w", err)
		}
		before := len(rep.Groups)
		start := time.Now()
		step()
		for _, g := range rep.Groups[before:] {
			violationsTotal.WithLabelValues(g.Name).Add(float64(g.Errors()))
			log.Info("check done", "check", g.Name, "count", len(g.Markers), "duration", time.Since(start))
		}
	}

	selected := c.selectedLayers()
	rep.Layers = append(rep.Layers, selected...)
	inReport := make(map[string]bool)
	for _, l := range selected {
		inReport[l.Name] = true
	}
	for _, name := range roleLayers {
		if l := c.Layer(name); l != nil && !inReport[name] {
			inReport[name] = true
			rep.Layers = append(rep.Layers, l)
		}
	}

	rep.Warnings = c.Warnings()
	rep.Duration = time.Since(rep.Started)
	runDuration.WithLabelValues(string(rep.Mode)).Observe(rep.Duration.Seconds())
	log.Info("analysis finished",
		"count", rep.Violations(), "duration", rep.Duration, "warnings", len(rep.Warnings))
	return rep, nil
}

// Stitched prepares every layer of d as the checks would, silkscreen
// filtering excepted, and returns them in drawing order.
func Stitched(ctx context.Context, cfg Config, k kernel.Kernel, d *drawing.Drawing) ([]*region.Layer, []Warning, error) {
	cfg.Layers.Botsilk = ""
	c := NewContext(cfg, k, d)
	names := d.Names()
	if err := c.Prepare(ctx, names); err != nil {
		return nil, nil, fmt.Errorf("analysis: stitch: %w", err)
	}
	out := make([]*region.Layer, 0, len(names))
	for _, n := range names {
		if l := c.Layer(n); l != nil {
			out = append(out, l)
		}
	}
	return out, c.Warnings(), nil
}

// Package analysis runs the fixture design-rule checks over a drawing.
//
// A run prepares every layer it needs (stitching, silkscreen filtering and
// bridging) in parallel, then performs the checks of the configured mode
// one after another over shared candidate indexes. Each check produces a
// Group of markers in the Report.
package analysis

import (
	"context"
	"runtime"

	"github.com/chazu/fixturedrc/pkg/clearance"
	"github.com/chazu/fixturedrc/pkg/drawing"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"golang.org/x/sync/errgroup"
)

// Context is the state of one run. It is built once and threaded through
// every check.
type Context struct {
	Config  Config
	Kernel  kernel.Kernel
	Drawing *drawing.Drawing

	layers   map[string]*region.Layer
	nested   map[string]bool
	flat     map[string][]*region.Region
	warnings []Warning

	checker *clearance.Checker
	builder *region.Builder
}

// NewContext returns a context with no prepared layers.
func NewContext(cfg Config, k kernel.Kernel, d *drawing.Drawing) *Context {
	return &Context{
		Config:  cfg,
		Kernel:  k,
		Drawing: d,
		layers:  make(map[string]*region.Layer),
		nested:  make(map[string]bool),
		flat:    make(map[string][]*region.Region),
		checker: clearance.NewChecker(k),
		builder: region.NewBuilder(k),
	}
}

// Prepare stitches the named layers, one worker per layer. Layers already
// prepared are skipped.
func (c *Context) Prepare(ctx context.Context, names []string) error {
	var todo []string
	seen := make(map[string]bool)
	for _, n := range names {
		if n == "" || seen[n] || c.layers[n] != nil {
			continue
		}
		seen[n] = true
		todo = append(todo, n)
	}

	type prepared struct {
		layer *region.Layer
		warns []Warning
	}
	results := make([]prepared, len(todo))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dl := c.Drawing.Layer(name)
			if dl == nil {
				return &ConfigurationError{Layer: name, Role: "layer", Reason: "not found in drawing"}
			}
			silk := name == c.Config.Layers.Botsilk && c.Config.Mode.bridgesSilk()
			l, warns, err := c.prepareLayer(dl, silk)
			if err != nil {
				return err
			}
			results[i] = prepared{layer: l, warns: warns}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, name := range todo {
		c.layers[name] = results[i].layer
		c.warn(results[i].warns...)
	}
	return nil
}

// Layer returns a prepared layer, or nil.
func (c *Context) Layer(name string) *region.Layer {
	return c.layers[name]
}

// Warnings returns every warning collected so far.
func (c *Context) Warnings() []Warning {
	return c.warnings
}

func (c *Context) warn(ws ...Warning) {
	for _, w := range ws {
		Logger().Warn("geometry degeneracy",
			"layer", w.Layer, "kind", w.Kind.String(), "message", w.Message)
		c.warnings = append(c.warnings, w)
	}
}

func (c *Context) regionWarnings(layer string, ws []region.Warning) {
	for _, w := range ws {
		kind := WarnFaceFailed
		if w.Ambiguous {
			kind = WarnAmbiguousContainment
		}
		c.warn(Warning{Kind: kind, Layer: layer, Message: w.Label + ": " + w.Message})
	}
}

// nestedLayer returns the prepared layer with its regions built with hole
// nesting.
func (c *Context) nestedLayer(name string) *region.Layer {
	l := c.layers[name]
	if l == nil {
		return nil
	}
	if !c.nested[name] {
		regions, warns := c.builder.Build(l.Wires)
		c.regionWarnings(name, warns)
		l.Regions = regions
		c.nested[name] = true
	}
	return l
}

// flatRegions returns one holeless region per wire of the layer.
func (c *Context) flatRegions(name string) []*region.Region {
	if r, ok := c.flat[name]; ok {
		return r
	}
	l := c.layers[name]
	if l == nil {
		return nil
	}
	regions, warns := c.builder.Flat(l.Wires)
	c.regionWarnings(name, warns)
	c.flat[name] = regions
	return regions
}

// selectedLayers returns the selected layers with nested regions, deepest
// first.
func (c *Context) selectedLayers() []*region.Layer {
	var out []*region.Layer
	for _, n := range c.Config.Layers.Selected {
		if l := c.nestedLayer(n); l != nil {
			out = append(out, l)
		}
	}
	region.SortByDepth(out)
	return out
}

// features turns the wires of a layer into candidate features. Wires the
// kernel cannot build a face for are skipped with a warning.
func (c *Context) features(name string) []*clearance.Feature {
	l := c.layers[name]
	if l == nil {
		return nil
	}
	out := make([]*clearance.Feature, 0, len(l.Wires))
	for _, w := range l.Wires {
		f, err := clearance.NewFeature(c.Kernel, w.Wire, w.Label, name)
		if err != nil {
			c.warn(Warning{Kind: WarnFaceFailed, Layer: name, Message: err.Error()})
			continue
		}
		out = append(out, f)
	}
	return out
}

// index builds a candidate index over bounds and reports dropped features.
func (c *Context) index(bounds geom.Box, policy clearance.SkipPolicy, feats ...[]*clearance.Feature) *clearance.Index {
	idx := clearance.NewIndex(bounds, policy)
	for _, fs := range feats {
		for _, f := range fs {
			idx.Add(f)
		}
	}
	if n := idx.Dropped(); n > 0 {
		Logger().Debug("features outside index bounds", "count", n)
		indexDroppedTotal.Add(float64(n))
	}
	return idx
}

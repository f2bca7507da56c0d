package main

import (
	"context"
	"errors"
	"log"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/drawing"
	"github.com/chazu/fixturedrc/pkg/engine"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/kernel/sdfx"
	"github.com/chazu/fixturedrc/pkg/region"
)

// ErrInvalidDrawing is returned when the source does not evaluate to a
// drawing the checks can run on.
var ErrInvalidDrawing = errors.New("invalid drawing")

// App ties the DSL engine, drawing validation and the analysis runner
// together for the commands.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// EvalErrorData is a JSON-serializable evaluation or validation error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is a drawing with everything found while building it.
type LoadResult struct {
	Drawing  *drawing.Drawing
	Errors   []EvalErrorData
	Warnings []drawing.ValidationWarning
}

// OK reports whether the drawing can be analysed.
func (r LoadResult) OK() bool {
	return r.Drawing != nil && len(r.Errors) == 0
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// Load evaluates source and validates the resulting drawing. Evaluation
// and blocking validation findings are returned in the result; the error
// is reserved for fatal engine failures.
func (a *App) Load(source string) (LoadResult, error) {
	result := LoadResult{
		Errors:   []EvalErrorData{},
		Warnings: []drawing.ValidationWarning{},
	}

	d, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		return result, err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result, nil
	}

	v := drawing.ValidateAll(d)
	for _, e := range v.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
	}
	result.Warnings = append(result.Warnings, v.Warnings...)
	result.Drawing = d
	return result, nil
}

// Check loads source and runs the analysis configured by cfg. The load
// result is always returned; the report is nil when loading failed.
func (a *App) Check(ctx context.Context, source string, cfg analysis.Config) (LoadResult, *analysis.Report, error) {
	lr, err := a.Load(source)
	if err != nil {
		return lr, nil, err
	}
	if !lr.OK() {
		return lr, nil, ErrInvalidDrawing
	}
	rep, err := analysis.NewRunner(cfg, a.kernel).Run(ctx, lr.Drawing)
	if err != nil {
		return lr, nil, err
	}
	return lr, rep, nil
}

// Stitch loads source and stitches every layer.
func (a *App) Stitch(ctx context.Context, source string, cfg analysis.Config) (LoadResult, []*region.Layer, []analysis.Warning, error) {
	lr, err := a.Load(source)
	if err != nil {
		return lr, nil, nil, err
	}
	if !lr.OK() {
		return lr, nil, nil, ErrInvalidDrawing
	}
	layers, warns, err := analysis.Stitched(ctx, cfg, a.kernel, lr.Drawing)
	return lr, layers, warns, err
}

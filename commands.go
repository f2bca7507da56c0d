package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/drawing"
	"github.com/chazu/fixturedrc/pkg/export"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/spf13/cobra"
)

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func printLoad(w io.Writer, path string, lr LoadResult) {
	for _, e := range lr.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d: %s\n", path, e.Line, e.Col, e.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", path, e.Message)
		}
	}
	for _, v := range lr.Warnings {
		fmt.Fprintf(w, "%s: warning: layer %q: %s\n", path, v.Layer, v.Message)
	}
}

func printReport(w io.Writer, rep *analysis.Report) {
	fmt.Fprintf(w, "run %s mode=%s duration=%s\n", rep.RunID, rep.Mode, rep.Duration.Round(time.Millisecond))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range rep.Groups {
		fmt.Fprintf(tw, "  %s\t%d\t(%d errors)\n", g.DisplayName(), len(g.Markers), g.Errors())
	}
	tw.Flush()
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	fmt.Fprintf(w, "%d violations\n", rep.Violations())
}

// check runs one analysis of the file at path and writes its exports.
func (o *options) check(ctx context.Context, cfg analysis.Config, path string) (*analysis.Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lr, rep, err := o.app.Check(ctx, string(src), cfg)
	printLoad(o.stdout, path, lr)
	if err != nil {
		return nil, err
	}
	printReport(o.stdout, rep)

	paths, err := export.Write(rep, cfg.Output, baseName(path))
	for _, p := range paths {
		fmt.Fprintf(o.stdout, "wrote %s\n", p)
	}
	return rep, err
}

func newCheckCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <drawing.fdl>",
		Short: "Run the design-rule checks of the configured mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}
			rep, err := o.check(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			if n := rep.Violations(); o.failOnViolation && n > 0 {
				return &exitError{code: exitViolations, err: fmt.Errorf("%d violations", n)}
			}
			return nil
		},
	}
	addCheckFlags(cmd, o)
	return cmd
}

func newStitchCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stitch <drawing.fdl>",
		Short: "Join the curves of every layer and write them as DXF polylines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			lr, layers, warns, err := o.app.Stitch(cmd.Context(), string(src), cfg)
			printLoad(o.stdout, args[0], lr)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(o.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYER\tCLOSED\tOPEN")
			for _, l := range layers {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", l.Name, len(l.Wires), len(l.Open))
			}
			tw.Flush()
			for _, w := range warns {
				fmt.Fprintf(o.stdout, "warning: %s\n", w)
			}

			dir := cfg.Output.Dir
			if dir == "" {
				dir = "."
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			out := filepath.Join(dir, baseName(args[0])+"_stitched.dxf")
			if err := export.ChainsDXF(layers, out); err != nil {
				return err
			}
			fmt.Fprintf(o.stdout, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.out, "out", "", "output directory")
	return cmd
}

func depthString(d float64) string {
	if math.IsInf(d, 1) {
		return "through"
	}
	return fmt.Sprintf("%g", d)
}

func newLayersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layers <drawing.fdl>",
		Short: "List the layers of a drawing with their depth and validation findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			d, evalErrs, err := o.app.engine.Evaluate(string(src))
			if err != nil {
				return err
			}
			if len(evalErrs) > 0 {
				lr := LoadResult{}
				for _, e := range evalErrs {
					lr.Errors = append(lr.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
				}
				printLoad(o.stdout, args[0], lr)
				return ErrInvalidDrawing
			}

			findings := make(map[string][]drawing.ValidationError)
			for _, v := range drawing.Validate(d) {
				findings[v.Layer] = append(findings[v.Layer], v)
			}
			tw := tabwriter.NewWriter(o.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYER\tDEPTH\tENTITIES\tFINDINGS")
			for _, l := range d.Layers {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n",
					l.Name, depthString(region.ParseDepth(l.Name)), len(l.Entities), len(findings[l.Name]))
			}
			tw.Flush()
			for _, l := range d.Layers {
				for _, v := range findings[l.Name] {
					fmt.Fprintf(o.stdout, "%s\n", v.Error())
				}
				delete(findings, l.Name)
			}
			for _, vs := range findings {
				for _, v := range vs {
					fmt.Fprintf(o.stdout, "%s\n", v.Error())
				}
			}
			return nil
		},
	}
}

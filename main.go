package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitConfig     = 2
	exitViolations = 3
)

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ce *analysis.ConfigurationError
	if errors.As(err, &ce) {
		return exitConfig
	}
	return exitFailure
}

// options holds the flag values shared by the commands.
type options struct {
	configPath string
	logLevel   string
	metricsOut string

	mode            string
	dr              float64
	areaBound       float64
	layers          []string
	out             string
	png             bool
	failOnViolation bool

	stdout io.Writer
	stderr io.Writer
	app    *App
}

// config loads the configuration file and applies the flags the user set.
func (o *options) config(cmd *cobra.Command) (analysis.Config, error) {
	cfg, err := analysis.LoadConfig(o.configPath)
	if err != nil {
		return cfg, &exitError{code: exitConfig, err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		m, err := analysis.ParseMode(o.mode)
		if err != nil {
			return cfg, &exitError{code: exitConfig, err: err}
		}
		cfg.Mode = m
	}
	if flags.Changed("dr") {
		cfg.Params.DR = o.dr
	}
	if flags.Changed("area-bound") {
		cfg.Params.AreaBound = o.areaBound
	}
	if flags.Changed("layers") {
		cfg.Layers.Selected = o.layers
	}
	if flags.Changed("out") {
		cfg.Output.Dir = o.out
	}
	if flags.Changed("png") {
		cfg.Output.PNG = o.png
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = o.logLevel
	}
	if err := setupLogging(o.stderr, cfg.LogLevel); err != nil {
		return cfg, &exitError{code: exitConfig, err: err}
	}
	return cfg, nil
}

// setupLogging installs a text logger on w for the analysis package.
func setupLogging(w io.Writer, level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	analysis.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
	return nil
}

func (o *options) writeMetrics() error {
	if o.metricsOut == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.metricsOut, analysis.Registry()); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func addCheckFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.mode, "mode", "", "analysis mode: router, unloader, wave or press")
	f.Float64Var(&o.dr, "dr", 0, "interference distance (mm)")
	f.Float64Var(&o.areaBound, "area-bound", 0, "candidates at or above this area are ignored")
	f.StringSliceVar(&o.layers, "layers", nil, "selected groove layers")
	f.StringVar(&o.out, "out", "", "output directory")
	f.BoolVar(&o.png, "png", false, "also write a PNG preview")
	f.BoolVar(&o.failOnViolation, "fail-on-violation", false, "exit with status 3 when violations are found")
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr, app: NewApp()}

	root := &cobra.Command{
		Use:           "fixturedrc",
		Short:         "Design-rule checks for PCB fixture drawings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return o.writeMetrics()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&o.metricsOut, "metrics-out", "", "write prometheus metrics to this textfile")

	root.AddCommand(
		newCheckCmd(o),
		newStitchCmd(o),
		newLayersCmd(o),
		newWatchCmd(o),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fixturedrc:", err)
	}
	stop()
	os.Exit(exitCode(err))
}

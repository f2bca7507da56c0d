package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/fsnotify/fsnotify"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", errors.New("boom"), exitFailure},
		{"explicit", &exitError{code: exitViolations, err: errors.New("3 violations")}, exitViolations},
		{"configuration", &analysis.ConfigurationError{Role: "open", Reason: "not configured"}, exitConfig},
		{"joined configuration", errors.Join(&analysis.ConfigurationError{Role: "dr", Reason: "bad"}), exitConfig},
		{"wrapped explicit", fmt.Errorf("run: %w", &exitError{code: exitConfig, err: errors.New("x")}), exitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", dir, "examples/unloader.fdl")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "violations") {
		t.Errorf("output should summarize violations:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR]Interference Within 3.0mm") {
		t.Errorf("output should list the interference group:\n%s", out)
	}
	for _, name := range []string{"unloader_result.dxf", "unloader_result.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "unloader_result.png")); !os.IsNotExist(err) {
		t.Error("png should only be written with --png")
	}
}

func TestCheckCommandPNGFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", dir, "--png", "examples/unloader.fdl")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "unloader_result.png")); err != nil {
		t.Errorf("expected png: %v", err)
	}
}

func TestCheckFailOnViolation(t *testing.T) {
	_, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", t.TempDir(),
		"--fail-on-violation", "examples/unloader.fdl")
	if got := exitCode(err); got != exitViolations {
		t.Fatalf("exit code = %d (%v), want %d", got, err, exitViolations)
	}
}

func TestCheckConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing config file", []string{"--config", "examples/nope.yaml"}},
		{"unknown mode", []string{"--config", "examples/unloader.yaml", "--mode", "drill"}},
		{"bad log level", []string{"--config", "examples/unloader.yaml", "--log-level", "loud"}},
		{"unconfigured roles", nil},
		{"non-positive dr", []string{"--config", "examples/unloader.yaml", "--dr", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"check", "--out", t.TempDir()}, tt.args...)
			args = append(args, "examples/unloader.fdl")
			_, err := execute(t, args...)
			if got := exitCode(err); got != exitConfig {
				t.Errorf("exit code = %d (%v), want %d", got, err, exitConfig)
			}
		})
	}
}

func TestCheckModeOverride(t *testing.T) {
	// The router roles are not configured in the unloader config.
	_, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", t.TempDir(),
		"--mode", "router", "examples/unloader.fdl")
	var ce *analysis.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want a ConfigurationError", err)
	}
}

func TestCheckInvalidDrawing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.fdl")
	if err := os.WriteFile(path, []byte("(layer \"A\"\n(rect 0 0"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", t.TempDir(), path)
	if !errors.Is(err, ErrInvalidDrawing) {
		t.Fatalf("err = %v, want ErrInvalidDrawing", err)
	}
	if exitCode(err) != exitFailure {
		t.Errorf("exit code = %d, want %d", exitCode(err), exitFailure)
	}
	if !strings.Contains(out, "broken.fdl") {
		t.Errorf("eval errors should be printed with the file name:\n%s", out)
	}
}

func TestMetricsOut(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "fixturedrc.prom")
	_, err := execute(t, "check", "--config", "examples/unloader.yaml", "--out", t.TempDir(),
		"--metrics-out", metrics, "examples/unloader.fdl")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, name := range []string{"fixturedrc_violations_total", "fixturedrc_run_duration_seconds"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("metrics file should contain %s", name)
		}
	}
}

// ---------------------------------------------------------------------------
// stitch and layers
// ---------------------------------------------------------------------------

func TestStitchCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "stitch", "--out", dir, "examples/router.fdl")
	if err != nil {
		t.Fatalf("stitch: %v\n%s", err, out)
	}
	if !strings.Contains(out, "LAYER") || !strings.Contains(out, "STOP_BLOCK") {
		t.Errorf("stitch should print a layer table:\n%s", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "router_stitched.dxf"))
	if err != nil {
		t.Fatalf("read stitched dxf: %v", err)
	}
	if !strings.Contains(string(data), "PRESSFIT") {
		t.Error("stitched dxf should keep the layer names")
	}
}

func TestLayersCommand(t *testing.T) {
	out, err := execute(t, "layers", "examples/unloader.fdl")
	if err != nil {
		t.Fatalf("layers: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected header and 6 layers, got %d lines:\n%s", len(lines), out)
	}
	fields := strings.Fields(lines[1])
	if fields[0] != "POCKET_3.0" || fields[1] != "3" || fields[2] != "2" {
		t.Errorf("pocket row = %v", fields)
	}
	if !strings.Contains(lines[2], "through") {
		t.Errorf("BOTSILK should be a through layer: %q", lines[2])
	}
}

func TestLayersCommandFindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "degenerate.fdl")
	src := `(layer "PIN" (circle 0 0 -1)) (layer "EMPTY")`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "layers", path)
	if err != nil {
		t.Fatalf("layers: %v", err)
	}
	if !strings.Contains(out, "radius -1 must be positive") {
		t.Errorf("expected the radius finding:\n%s", out)
	}
	if !strings.Contains(out, "layer has no entities") {
		t.Errorf("expected the empty layer finding:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func TestWatcherRelevant(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "board.fdl")
	w := &watcher{target: target}

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: target, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: filepath.Join(dir, "other.fdl"), Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: target + ".swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

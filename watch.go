package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// defaultDebounce is the quiet period after the last change before a
// re-run.
const defaultDebounce = 300 * time.Millisecond

// watcher re-runs a check whenever one file changes. Editors often replace
// files instead of writing them, so the parent directory is watched and
// events are filtered by name.
type watcher struct {
	target   string
	debounce time.Duration
	fw       *fsnotify.Watcher
	run      func(ctx context.Context)
}

func newWatcher(path string, debounce time.Duration, run func(ctx context.Context)) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &watcher{target: abs, debounce: debounce, fw: fw, run: run}, nil
}

func (w *watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// loop runs until ctx is done. A burst of events triggers one run.
func (w *watcher) loop(ctx context.Context) error {
	defer w.fw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			analysis.Logger().Warn("watch error", "error", err)
		case <-timerC:
			timer, timerC = nil, nil
			w.run(ctx)
		}
	}
}

func newWatchCmd(o *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <drawing.fdl>",
		Short: "Re-run check every time the drawing changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}
			run := func(ctx context.Context) {
				if _, err := o.check(ctx, cfg, args[0]); err != nil {
					fmt.Fprintf(o.stdout, "check failed: %v\n", err)
				}
				if err := o.writeMetrics(); err != nil {
					fmt.Fprintf(o.stdout, "%v\n", err)
				}
			}
			w, err := newWatcher(args[0], debounce, run)
			if err != nil {
				return err
			}
			run(cmd.Context())
			fmt.Fprintf(o.stdout, "watching %s\n", args[0])
			return w.loop(cmd.Context())
		},
	}
	addCheckFlags(cmd, o)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before re-running")
	return cmd
}

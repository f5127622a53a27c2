package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/syncthing/notify"
	"github.com/urfave/cli/v2"

	"github.com/Heliodex/macrame/expand"
)

// watchLoop re-runs the preprocessor whenever a watched path changes.
// Settings are resolved again each round so config edits take effect,
// and failed runs print and keep the loop alive, so a half-saved source
// does not kill the session.
func watchLoop(c *cli.Context, cliPredefs []predef, j *job, opts options) error {
	paths := j.watched(opts.config)
	fmt.Fprintf(os.Stderr, "Watching %d paths for changes...\n", len(paths))

	for {
		if err := awaitChange(paths); err != nil {
			return err
		}

		next, err := resolve(c, cliPredefs)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if next.output == "" {
			// a config edit dropped the output file, keep the old one
			next.output = opts.output
		}
		if !slices.Equal(next.includes, opts.includes) {
			j.loader = expand.NewFileLoader(next.includes)
		}
		j.inputs, j.predefs, j.lines = next.inputs, next.predefs, next.lines
		opts = next

		text, err := j.run()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		} else if err := write(opts.output, text); err != nil {
			return err
		}
		paths = j.watched(opts.config)
	}
}

// awaitChange blocks until the watched paths go quiet after a change.
// The parent directories are watched rather than the files themselves,
// which survives editors that replace a file on save; events for other
// files in those directories, the output file included, are ignored so
// writing the result cannot retrigger the loop.
func awaitChange(paths []string) error {
	// Make the channel buffered to ensure no event is dropped. Notify will drop
	// an event if the receiver is not able to keep up the sending pace.
	ch := make(chan notify.EventInfo, 1)

	watched := make(map[string]bool, len(paths))
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("error watching %s: %w", p, err)
		}
		watched[abs] = true
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := notify.Watch(dir, ch, notify.All); err != nil {
			return fmt.Errorf("error watching %s: %w", dir, err)
		}
	}
	defer notify.Stop(ch)

	// Batch events: return only once no new event arrives within 100ms
	var timer *time.Timer
	timeout := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		// Block forever if timer is nil
		return make(chan time.Time)
	}
	for {
		select {
		case ei := <-ch:
			if !watched[filepath.Clean(ei.Path())] {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(100 * time.Millisecond)
		case <-timeout():
			return nil
		}
	}
}

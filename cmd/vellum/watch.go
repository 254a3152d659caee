package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"vellum/internal/runner"
)

// debounceDelay batches the burst of events an editor save produces.
const debounceDelay = 200 * time.Millisecond

// watchLoop runs the suite, then reruns it whenever a fixture changes.
// The result cache keeps reruns cheap: only touched files recompute.
func watchLoop(ctx context.Context, cmd *cobra.Command, opts runner.Options, quiet bool) error {
	testsDir := filepath.Join(opts.Root, opts.Config.Paths.Tests)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watchTree(watcher, testsDir); err != nil {
		return err
	}

	runPass := func() {
		if err := runOnce(ctx, cmd, opts, quiet); err != nil && err != errRunFailed {
			cmd.PrintErrln("error:", err)
		}
		cmd.Println("watching for changes...")
	}
	runPass()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			runPass()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories must be picked up for future events.
			if ev.Op&fsnotify.Create != 0 {
				_ = watchTree(watcher, ev.Name)
			}
			if !strings.HasSuffix(ev.Name, runner.TestExt) && ev.Op&fsnotify.Create == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrln("watch error:", err)
		}
	}
}

// watchTree registers a directory and everything below it. Non-directory
// paths are ignored.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

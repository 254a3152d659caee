package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"vellum/internal/runner"
	"vellum/internal/ui"
)

type runOutcome struct {
	summary *runner.Summary
	err     error
}

// runWithUI executes the run behind a Bubble Tea progress display. The
// run itself happens on a background goroutine; the model consumes its
// events and quits when the channel closes.
func runWithUI(ctx context.Context, opts runner.Options) (*runner.Summary, error) {
	files, err := runner.ListMatching(opts)
	if err != nil {
		return nil, err
	}

	events := make(chan runner.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		summary, err := runner.Run(ctx, optsCopy)
		outcomeCh <- runOutcome{summary: summary, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("running tests", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()

	// The display can quit before the run finishes (user interrupt).
	// Keep consuming events so the runner's sends never block.
	drainEvents(events)
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}

// drainEvents discards events until the runner closes the channel.
func drainEvents(events <-chan runner.Event) {
	for range events {
	}
}

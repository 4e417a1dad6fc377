package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sqlreflow/internal/driver"
	"sqlreflow/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides on the progress display. In auto mode it is shown
// only on a terminal and only when there is more than one file to watch.
func shouldUseTUI(mode uiMode, files int) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return files > 1 && isTerminal(os.Stdout)
	}
}

// withProgress calls run while a progress display follows its events.
// run must send every event through the sink it is given.
func withProgress[T any](title string, files []string, run func(driver.ProgressSink) (T, error)) (T, error) {
	events := make(chan driver.Event, 256)
	type outcome struct {
		result T
		err    error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		res, err := run(driver.ChannelSink{Ch: events})
		outcomeCh <- outcome{result: res, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep the workers from blocking on a display that is gone.
		go func() {
			for range events {
			}
		}()
	}
	out := <-outcomeCh
	if uiErr != nil && out.err == nil {
		return out.result, uiErr
	}
	return out.result, out.err
}

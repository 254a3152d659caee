package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects the live progress display for the harness run. It
// implements pflag.Value so bad --ui values fail at flag parse time.
type uiMode string

const (
	uiAuto uiMode = "auto"
	uiOn   uiMode = "on"
	uiOff  uiMode = "off"
)

func (m *uiMode) String() string {
	return string(*m)
}

func (m *uiMode) Set(value string) error {
	switch v := uiMode(strings.TrimSpace(strings.ToLower(value))); v {
	case "":
		*m = uiAuto
	case uiAuto, uiOn, uiOff:
		*m = v
	default:
		return fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return nil
}

func (m *uiMode) Type() string {
	return "auto|on|off"
}

// enabled reports whether the run should go through the Bubble Tea
// progress display. Auto mode requires stdout to be a terminal, since
// the display repaints in place.
func (m uiMode) enabled() bool {
	switch m {
	case uiOn:
		return true
	case uiOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

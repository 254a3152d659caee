// Package diag defines the diagnostics the compiler reports and the
// harness matches against fixture annotations.
package diag

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"vellum/internal/source"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Diagnostic is one compiler finding: a primary span and a message.
type Diagnostic struct {
	Severity Severity
	Primary  source.Span
	Message  string
}

// NormalizeMessage canonicalizes a diagnostic message for comparison:
// backslashes become forward slashes so paths embedded in messages stay
// stable across platforms, and the text is NFC-normalized.
func NormalizeMessage(msg string) string {
	return norm.NFC.String(strings.ReplaceAll(msg, "\\", "/"))
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

// Classification markers. Callers attach one with Wrap and test for it with
// errors.Is; ExitCode relies on them to pick the process status.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrExternalTool  = errors.New("external tool error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with "stage: operation: message".
// Empty parts are skipped. A nil marker is treated as ErrTransient and a nil
// err yields an error carrying only the marker and the prefix.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	where := joinNonEmpty(stage, operation, message)
	if where == "" {
		where = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, where)
	}
	return fmt.Errorf("%w: %s: %w", marker, where, err)
}

// ExitCode maps a command error to a process status: 0 on success, 2 for
// input, configuration and lookup problems, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, usage := range []error{ErrValidation, ErrConfiguration, ErrNotFound} {
		if errors.Is(err, usage) {
			return 2
		}
	}
	return 1
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ": ")
}

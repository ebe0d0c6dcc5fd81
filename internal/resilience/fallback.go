// Package resilience provides the fallback controllers that wrap the speech
// providers: transcription retries a fixed ladder of decode strategies
// against one shared model, and synthesis retries a secondary voice when the
// primary fails.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned (or absorbed, for transcription) when every
// attempt in a fallback ladder fails.
var ErrAllFailed = errors.New("all fallback attempts failed")

// step names a single attempt in a fallback ladder.
type step[T any] struct {
	name string
	run  func() (T, error)
}

// runSteps tries each step in order and returns the first successful result
// together with the name of the step that produced it. Each failure is logged
// and the next step is attempted. Returns [ErrAllFailed] wrapped with the
// last error when every step fails.
func runSteps[T any](subsystem string, steps []step[T]) (T, string, error) {
	var (
		lastErr error
		zero    T
	)
	for _, s := range steps {
		result, err := s.run()
		if err == nil {
			return result, s.name, nil
		}
		lastErr = err
		slog.Warn("fallback attempt failed, trying next",
			"subsystem", subsystem,
			"attempt", s.name,
			"error", err,
		)
	}
	return zero, "", fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

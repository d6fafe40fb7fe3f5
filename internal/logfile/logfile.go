// Package logfile checks configured log files for freshness and for
// content in their companion error files.
package logfile

import (
	"fmt"
	"math"
	"time"
)

// DefaultMaxAge applies to log files without an explicit max_age_seconds.
const DefaultMaxAge = 24 * time.Hour

// NoPathLabel labels entries whose path is not configured.
const NoPathLabel = "<no path defined>"

// Spec describes one monitored log file.
type Spec struct {
	Path          string  `yaml:"path"`
	ErrorPath     *string `yaml:"error_path,omitempty"`
	MaxAgeSeconds *uint64 `yaml:"max_age_seconds,omitempty"`
}

// maxDurationSeconds is the largest whole-second count a time.Duration holds.
const maxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// MaxAge returns the configured maximum age, or DefaultMaxAge. Values too
// large for a time.Duration saturate at its maximum.
func (s Spec) MaxAge() time.Duration {
	if s.MaxAgeSeconds == nil {
		return DefaultMaxAge
	}
	if *s.MaxAgeSeconds > maxDurationSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(*s.MaxAgeSeconds) * time.Second
}

// Label returns the configured path, or NoPathLabel.
func (s Spec) Label() string {
	if s.Path == "" {
		return NoPathLabel
	}
	return s.Path
}

// State classifies a log file.
type State int

const (
	StateOK State = iota
	StateErrorsFound
	StateAgeExceeded
	StateNotFound
	StateNoLogFilesConfigured
	StateIOFailure
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateErrorsFound:
		return "errors_found"
	case StateAgeExceeded:
		return "age_exceeded"
	case StateNotFound:
		return "not_found"
	case StateNoLogFilesConfigured:
		return "no_log_files_configured"
	case StateIOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Status is the evaluation result for one log file. ModifiedAt is set for
// StateAgeExceeded, Detail for StateIOFailure.
type Status struct {
	State      State
	ModifiedAt time.Time
	Detail     string
}

// Healthy reports whether the status needs no attention.
func (s Status) Healthy() bool {
	return s.State == StateOK
}

// Entry pairs a status with its label.
type Entry struct {
	Label  string
	Status Status
}

func ioFailure(format string, args ...any) Status {
	return Status{State: StateIOFailure, Detail: fmt.Sprintf(format, args...)}
}

package logfile

import (
	"time"

	"go.uber.org/zap"
)

// Evaluator checks log files against a filesystem and a clock.
type Evaluator struct {
	fs  FileSystem
	now func() time.Time
	log *zap.Logger
}

// NewEvaluator creates an evaluator. A nil fs means the host filesystem and
// a nil now means time.Now.
func NewEvaluator(fs FileSystem, now func() time.Time, log *zap.Logger) *Evaluator {
	if fs == nil {
		fs = OSFileSystem{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{fs: fs, now: now, log: log}
}

// Evaluate returns one entry per spec, in order. With no specs it returns a
// single StateNoLogFilesConfigured entry so the report still shows the gap.
func (e *Evaluator) Evaluate(specs []Spec) []Entry {
	return e.EvaluateAt(specs, e.now())
}

// EvaluateAt is Evaluate with ages measured from now instead of the
// evaluator's clock.
func (e *Evaluator) EvaluateAt(specs []Spec, now time.Time) []Entry {
	if len(specs) == 0 {
		return []Entry{{
			Label:  "",
			Status: Status{State: StateNoLogFilesConfigured},
		}}
	}

	entries := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		status := e.check(spec, now)
		if !status.Healthy() {
			e.log.Debug("log file needs attention",
				zap.String("path", spec.Path),
				zap.Stringer("state", status.State),
				zap.String("detail", status.Detail))
		}
		entries = append(entries, Entry{Label: spec.Label(), Status: status})
	}
	return entries
}

func (e *Evaluator) check(spec Spec, now time.Time) Status {
	if status, done := e.checkErrorFile(spec.ErrorPath); done {
		return status
	}
	return e.checkLogFile(spec, now)
}

// checkErrorFile reports done when the error file decides the status.
func (e *Evaluator) checkErrorFile(errorPath *string) (Status, bool) {
	if errorPath == nil {
		return Status{}, false
	}

	exists, err := e.fs.Exists(*errorPath)
	if err != nil {
		return ioFailure("checking error file %s: %v", *errorPath, err), true
	}
	if !exists {
		return Status{}, false
	}

	meta, err := e.fs.Metadata(*errorPath)
	if err != nil {
		return ioFailure("reading error file %s: %v", *errorPath, err), true
	}
	if meta.Size > 0 {
		return Status{State: StateErrorsFound}, true
	}
	return Status{}, false
}

func (e *Evaluator) checkLogFile(spec Spec, now time.Time) Status {
	exists, err := e.fs.Exists(spec.Path)
	if err != nil {
		return ioFailure("checking %s: %v", spec.Path, err)
	}
	if !exists {
		return Status{State: StateNotFound}
	}

	meta, err := e.fs.Metadata(spec.Path)
	if err != nil {
		return ioFailure("reading %s: %v", spec.Path, err)
	}

	age := now.Sub(meta.ModTime)
	if age < 0 {
		return ioFailure("modification time %s of %s is in the future",
			meta.ModTime.Format(time.RFC3339), spec.Path)
	}
	if age > spec.MaxAge() {
		return Status{State: StateAgeExceeded, ModifiedAt: meta.ModTime}
	}
	return Status{State: StateOK}
}

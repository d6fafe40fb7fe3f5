// Package report gathers disk and log-file health into a Report and renders
// it as a rich-text message.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/hypertext"
	"github.com/mackeh/ncwatchdog/internal/logfile"
	"github.com/mackeh/ncwatchdog/internal/telemetry"
)

// ErrProbe is returned when the volume list cannot be read. No report is
// produced in that case.
var ErrProbe = errors.New("disk probe failed")

// Report is the health snapshot of one run.
type Report struct {
	GeneratedAt time.Time
	Disks       []disk.Entry
	Logs        []logfile.Entry
}

// Healthy reports whether every disk and log file is in a good state.
func (r *Report) Healthy() bool {
	for _, d := range r.Disks {
		if d.Status.State != disk.StateHealthy {
			return false
		}
	}
	for _, l := range r.Logs {
		if !l.Status.Healthy() {
			return false
		}
	}
	return true
}

// Engine builds and renders reports.
type Engine struct {
	probe disk.Probe
	fs    logfile.FileSystem
	now   func() time.Time
	log   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFileSystem replaces the host filesystem used for log checks.
func WithFileSystem(fs logfile.FileSystem) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine reading volumes from probe.
func NewEngine(probe disk.Probe, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		probe: probe,
		fs:    logfile.OSFileSystem{},
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Build evaluates every monitored disk and log file in cfg. Individual
// items degrade to error statuses; only a probe failure aborts.
func (e *Engine) Build(ctx context.Context, cfg *config.Config) (*Report, error) {
	ctx, span := otel.Tracer("report").Start(ctx, "Build")
	defer span.End()

	volumes, err := e.probe.ListVolumes(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		telemetry.ReportsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}

	// Staleness and the rendered ages are measured from the same instant.
	now := e.now()
	evaluator := logfile.NewEvaluator(e.fs, e.now, e.log.Named("logfile"))
	r := &Report{
		GeneratedAt: now,
		Disks:       disk.Evaluate(volumes, cfg.MonitoredDisks),
		Logs:        evaluator.EvaluateAt(cfg.LogFiles, now),
	}

	span.SetAttributes(
		attribute.Int("report.volumes", len(volumes)),
		attribute.Int("report.disks", len(r.Disks)),
		attribute.Int("report.logs", len(r.Logs)),
		attribute.Bool("report.healthy", r.Healthy()),
	)
	e.record(r)

	e.log.Info("report built",
		zap.Int("disks", len(r.Disks)),
		zap.Int("logs", len(r.Logs)),
		zap.Bool("healthy", r.Healthy()))
	return r, nil
}

func (e *Engine) record(r *Report) {
	for _, d := range r.Disks {
		telemetry.ObserveDisk(d.Label, d.Status.State.String(), d.Status.Volume.AvailableBytes)
	}
	for _, l := range r.Logs {
		telemetry.ObserveLogFile(l.Label, l.Status.State.String())
	}
	telemetry.ReportsTotal.WithLabelValues("ok").Inc()
}

// GenerateReport builds a report for cfg and renders it.
func (e *Engine) GenerateReport(ctx context.Context, cfg *config.Config) (hypertext.Message, error) {
	r, err := e.Build(ctx, cfg)
	if err != nil {
		return hypertext.Message{}, err
	}

	_, span := otel.Tracer("report").Start(ctx, "Render")
	defer span.End()

	msg := Render(r)
	span.SetAttributes(
		attribute.Int("message.length", hypertext.UTF16Len(msg.Body)),
		attribute.Int("message.entities", len(msg.Entities)),
	)
	return msg, nil
}

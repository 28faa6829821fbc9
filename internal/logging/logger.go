package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/config"
)

// stdout carries the command protocol, so logs default to stderr.
var log = newLogger(os.Stderr)

var serviceName = "parking-lot-service"

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(jsonFormatter())
	l.SetLevel(logrus.InfoLevel)
	return l
}

func jsonFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// Configure applies level, format and optional log file. The returned closer
// releases the file and is safe to call when no file was opened.
func Configure(cfg config.LogConfig, service string) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nopCloser{}, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(jsonFormatter())
	}

	if service != "" {
		serviceName = service
	}

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nopCloser{}, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nopCloser{}, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file, nil
}

// SetOutput redirects all log output. Tests use it to capture entries.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Logger exposes the underlying logger for code that needs a plain
// io.Writer or a *logrus.Logger.
func Logger() *logrus.Logger {
	return log
}

// WithContext returns a logger with trace context fields (trace_id, span_id) if available
func WithContext(ctx context.Context) *logrus.Entry {
	spanCtx := trace.SpanContextFromContext(ctx)

	fields := logrus.Fields{
		"service.name": serviceName,
	}

	if spanCtx.IsValid() {
		fields["trace_id"] = spanCtx.TraceID().String()
		fields["span_id"] = spanCtx.SpanID().String()
		fields["trace_flags"] = spanCtx.TraceFlags().String()
	}

	return log.WithFields(fields)
}

func Info(ctx context.Context, msg string) {
	WithContext(ctx).Info(msg)
}

func Infof(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Infof(format, args...)
}

func Error(ctx context.Context, msg string) {
	WithContext(ctx).Error(msg)
}

func Errorf(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Errorf(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Warnf(format, args...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Debugf(format, args...)
}

// WithFields returns a logger entry with additional custom fields
func WithFields(ctx context.Context, fields map[string]any) *logrus.Entry {
	return WithContext(ctx).WithFields(fields)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

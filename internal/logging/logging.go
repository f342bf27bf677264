// Package logging provides the structured logging conventions shared by
// engine and CLI code. Library constructors never reach for a package-level
// logger; they accept an *slog.Logger the same way the reference
// controller's store constructors accept a *sql.DB, and fall back to
// slog.Default() when none is given.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// #region fallback

// OrDefault returns l if non-nil, otherwise the process-wide default logger.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// #endregion fallback

// #region cli-handler

// NewCLIHandler builds the colorized, leveled terminal handler the
// operator CLI wires at startup.
func NewCLIHandler(level slog.Level) slog.Handler {
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})
}

// #endregion cli-handler

// #region call-tracing

// DetectorCall logs a single detector invocation at Debug: the inputs it
// read and whether it emitted a record. Among the detectors, only
// AttractorDogmatism calls this (once per invocation); it never logs above
// Debug, leaving Info/Warn to the CLI.
func DetectorCall(ctx context.Context, l *slog.Logger, signatureType, pointID string, fired bool, severity float64) {
	OrDefault(l).DebugContext(ctx, "detector call",
		slog.String("signature_type", signatureType),
		slog.String("point_id", pointID),
		slog.Bool("fired", fired),
		slog.Float64("severity", severity),
	)
}

// AnalyticCall logs a single analytic invocation (clustering, escalation,
// evolution) at Debug.
func AnalyticCall(ctx context.Context, l *slog.Logger, name string, fields ...any) {
	args := append([]any{slog.String("analytic", name)}, fields...)
	OrDefault(l).DebugContext(ctx, "analytic call", args...)
}

// #endregion call-tracing

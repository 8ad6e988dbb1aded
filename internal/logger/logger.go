// Package logger provides structured logging for the roster engine.
package logger

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// contextKeys are the keys used for storing values in context
type contextKey string

const (
	runIDKey    contextKey = "run-id"
	driverIDKey contextKey = "driver-id"
)

// NewLogger creates and returns a new SugaredLogger configured for the given environment.
// If env is empty, it reads from the APP_ENV environment variable.
// Defaults to production mode if not specified or unrecognized.
//
// Development mode:
//   - Console output with colorized text
//   - Verbose logging (Debug level and above)
//   - JSON is not used for better readability
//
// Production mode:
//   - JSON output to stdout
//   - Info level and above
//   - Optimized for log aggregation systems
func NewLogger(env string) (*zap.SugaredLogger, error) {
	// If env is empty, read from environment variable
	if env == "" {
		env = os.Getenv("APP_ENV")
	}

	var config zap.Config

	switch env {
	case "development", "dev":
		// Development configuration: human-readable, verbose output
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}

	default:
		// Production configuration: JSON output, optimized
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		// Add caller information for debugging
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.LevelKey = "level"
		config.EncoderConfig.MessageKey = "message"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Sugar(), nil
}

// WithRunID injects a run identifier into the given context. A run corresponds
// to one solver invocation (one monthly or annual optimization) and is used to
// correlate the log lines emitted across the phases of that run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// ExtractRunID retrieves the run identifier from the given context.
// Returns an empty string if none is found.
func ExtractRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithDriverID injects a driver identifier into the given context.
// Used when logging inside driver-scoped feasibility or repair checks.
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return context.WithValue(ctx, driverIDKey, driverID)
}

// ExtractDriverID retrieves the driver identifier from the given context.
func ExtractDriverID(ctx context.Context) string {
	if id, ok := ctx.Value(driverIDKey).(string); ok {
		return id
	}
	return ""
}

// LogPhase logs the completion of an orchestrator phase with timing and
// coverage so far.
//
// Example output (production JSON):
//
//	{
//	  "level": "info",
//	  "timestamp": "2026-02-01T10:30:45.123Z",
//	  "message": "phase completed",
//	  "phase": "greedy",
//	  "duration_ms": 45,
//	  "coverage": 1.0
//	}
func LogPhase(logger *zap.SugaredLogger, phase string, durationMS int64, coverage float64) {
	logger.Infow("phase completed",
		"phase", phase,
		"duration_ms", durationMS,
		"coverage", coverage,
	)
}

// LogError logs an error with additional context information.
// Used to log engine errors with contextual metadata.
//
// Example:
//
//	LogError(logger, err, map[string]interface{}{
//	  "operation": "expand_shifts",
//	  "service_id": "S-014",
//	})
func LogError(logger *zap.SugaredLogger, err error, context map[string]interface{}) {
	fields := []interface{}{"error", err}

	// Add context fields to the log
	for key, value := range context {
		fields = append(fields, key, value)
	}

	logger.Errorw("error occurred", fields...)
}

// LogLNSIteration logs one LNS/ALNS destroy-repair iteration outcome.
// Used to track search progress and adaptive operator effectiveness.
func LogLNSIteration(logger *zap.SugaredLogger, iteration int, operator string, accepted bool, cost int64, temperature float64) {
	logger.Debugw("lns iteration",
		"iteration", iteration,
		"operator", operator,
		"accepted", accepted,
		"cost", cost,
		"temperature", temperature,
	)
}

// LogCPSATAttempt logs one CP-SAT solve attempt at a candidate driver count.
//
// Example:
//
//	LogCPSATAttempt(logger, 12, 8200, "optimal", nil)
//	LogCPSATAttempt(logger, 11, 60000, "infeasible", nil)
func LogCPSATAttempt(logger *zap.SugaredLogger, drivers int, durationMS int64, status string, err error) {
	if err != nil {
		logger.Errorw("cp-sat attempt failed",
			"drivers", drivers,
			"duration_ms", durationMS,
			"status", status,
			"error", err,
		)
		return
	}

	logger.Infow("cp-sat attempt completed",
		"drivers", drivers,
		"duration_ms", durationMS,
		"status", status,
	)
}

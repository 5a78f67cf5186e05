package scheduler

import "log/slog"

// cronLogAdapter satisfies cron.Logger over a *slog.Logger, so cron's own
// recover/skip-if-still-running job wrappers log through the same sink as
// the rest of the service.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	a.logger.Error(msg, args...)
}

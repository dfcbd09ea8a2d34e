package carbonlock

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// expirySweepTimeout bounds one scheduled expiry sweep.
const expirySweepTimeout = time.Minute

// startExpiryWorker schedules ExpireOverdue on e.expirySchedule. A sweep
// that is still running when the next one is due causes that one to be
// skipped.
func (e *Engine) startExpiryWorker() error {
	if err := ValidateSchedule(e.expirySchedule); err != nil {
		return err
	}

	logger := cronLogger{e.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(e.expirySchedule, e.sweepExpired); err != nil {
		return ValidationError{Field: "expiry_schedule", Message: err.Error()}
	}

	c.Start()
	e.cron = c

	e.logger.Info("expiry worker started", "schedule", e.expirySchedule)
	return nil
}

func (e *Engine) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), expirySweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := e.ExpireOverdue(ctx, e.clock.Now())
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Error("expiry sweep failed",
			"expired", n,
			"elapsed", elapsed,
			"error", err,
		)
	} else if n > 0 {
		e.logger.Info("expiry sweep completed",
			"expired", n,
			"elapsed", elapsed,
		)
	}

	e.plugins.EmitExpirySweep(ctx, n, elapsed)
}

// cronLogger routes scheduler diagnostics to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

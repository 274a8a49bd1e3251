package tracker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// scheduleParser accepts standard 5-field cron expressions and
// descriptors such as "@hourly" or "@every 6h".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Watch runs a tracking pass on every tick of schedule until ctx is done.
// A pass still running when the next tick fires makes that tick a no-op.
// after, if not nil, is called with each successful run's summary, for
// example to regenerate reports. Failed runs are logged and do not stop
// the watch.
func (t *Tracker) Watch(ctx context.Context, schedule string, after func(context.Context, Summary) error) error {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger := cronLogger{logger: t.logger.Sugar()}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		summary, err := t.Run(ctx)
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Error("Tracking run failed", zap.String("run_id", summary.RunID), zap.Error(err))
			}
			return
		}
		if after == nil {
			return
		}
		if err := after(ctx, summary); err != nil {
			t.logger.Error("After-run hook failed", zap.String("run_id", summary.RunID), zap.Error(err))
		}
	}))

	t.logger.Info("Watching", zap.String("schedule", schedule), zap.Time("next", sched.Next(t.now())))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

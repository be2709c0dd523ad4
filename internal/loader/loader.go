package loader

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"iccrelay-go/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SummaryRunner produces, sends and resets a window summary
type SummaryRunner interface {
	RunSummary(ctx context.Context, w model.Window) (model.WindowStats, error)
}

// Scheduler fires the daily and weekly summaries. It holds no tracker state
// of its own.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	runner   SummaryRunner
	logger   *zap.Logger
	running  map[model.Window]*atomic.Bool
	entries  map[model.Window]cron.EntryID
}

// NewScheduler registers both summary jobs. Specs use the standard five
// field cron format and are evaluated in loc.
func NewScheduler(runner SummaryRunner, dailySpec, weeklySpec string, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.Named("scheduler")

	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		location: loc,
		runner:   runner,
		logger:   logger,
		running: map[model.Window]*atomic.Bool{
			model.WindowDaily:  {},
			model.WindowWeekly: {},
		},
		entries: make(map[model.Window]cron.EntryID),
	}

	for w, spec := range map[model.Window]string{model.WindowDaily: dailySpec, model.WindowWeekly: weeklySpec} {
		id, err := s.cron.AddFunc(spec, func() { s.fire(w) })
		if err != nil {
			return nil, fmt.Errorf("invalid %s cron spec %q: %w", w, spec, err)
		}
		s.entries[w] = id
	}

	return s, nil
}

// Next returns the next firing time of the window's job after t
func (s *Scheduler) Next(w model.Window, t time.Time) time.Time {
	id, ok := s.entries[w]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Schedule.Next(t.In(s.location))
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running summary to finish
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("⏰ scheduler started",
		zap.Time("next_daily", s.Next(model.WindowDaily, time.Now())),
		zap.Time("next_weekly", s.Next(model.WindowWeekly, time.Now())))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("🛑 scheduler stopped")
	return nil
}

// fire runs one summary, skipping it while the previous one for the same
// window is still running
func (s *Scheduler) fire(w model.Window) {
	flag := s.running[w]
	if !flag.CompareAndSwap(false, true) {
		s.logger.Warn("⏭️ skipping summary, previous run still in progress", zap.String("window", string(w)))
		return
	}
	defer flag.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.logger.Info("🔄 running summary", zap.String("window", string(w)))
	if _, err := s.runner.RunSummary(ctx, w); err != nil {
		s.logger.Error("❌ summary failed", zap.String("window", string(w)), zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules jobs on UTC cron specs with a seconds field
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers job under spec. Overlapping runs of the same job are skipped.
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	running := make(chan struct{}, 1)
	return r.cron.AddFunc(spec, func() {
		select {
		case running <- struct{}{}:
			defer func() { <-running }()
		default:
			r.logger.Warn("cron job still running, skipping", zap.String("job", name))
			return
		}

		started := time.Now()
		r.logger.Info("cron job started", zap.String("job", name))
		job(r.baseCtx)
		r.logger.Info("cron job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(started)))
	})
}

// Entries returns the number of scheduled jobs
func (r *Runner) Entries() int {
	return len(r.cron.Entries())
}

func (r *Runner) Start() {
	r.logger.Info("cron started")
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// Package cron runs scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Insights is the slice of the insights service the scheduler needs.
type Insights interface {
	Invalidate()
	WarmCurrent(ctx context.Context) error
}

// Searcher rebuilds the expense search index.
type Searcher interface {
	Reindex(ctx context.Context) error
}

// Scheduler manages the nightly maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	insights Insights
	search   Searcher
	logger   *slog.Logger
}

// NewScheduler creates the job scheduler.
func NewScheduler(insights Insights, search Searcher, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		insights: insights,
		search:   search,
		logger:   logger,
	}
}

// Start registers and begins the scheduled jobs.
func (s *Scheduler) Start() error {
	// Nightly rollup refresh at 2:00 AM
	if _, err := s.cron.AddFunc("0 2 * * *", s.refreshRollups); err != nil {
		return err
	}
	// Weekly search reindex, Sunday 3:00 AM
	if _, err := s.cron.AddFunc("0 3 * * 0", s.reindexSearch); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers both jobs immediately, for admin use.
func (s *Scheduler) RunNow() {
	go s.refreshRollups()
	go s.reindexSearch()
}

// refreshRollups recomputes the current month and year breakdowns so the
// dashboard stays warm across the midnight boundary.
func (s *Scheduler) refreshRollups() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.logger.Info("starting nightly rollup refresh")

	s.insights.Invalidate()
	if err := s.insights.WarmCurrent(ctx); err != nil {
		s.logger.Error("rollup refresh failed", slog.Any("error", err))
		return
	}

	s.logger.Info("nightly rollup refresh completed")
}

// reindexSearch rebuilds the full-text index from the expense store.
func (s *Scheduler) reindexSearch() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("starting search reindex")

	if err := s.search.Reindex(ctx); err != nil {
		s.logger.Error("search reindex failed", slog.Any("error", err))
		return
	}

	s.logger.Info("search reindex completed")
}

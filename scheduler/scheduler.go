// Package scheduler fires the recurring newsletter runs and the audit
// retention job on Europe/Rome wall-clock times.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fishandtips/newsletter/dispatch"
	"github.com/fishandtips/newsletter/models"
	"github.com/google/uuid"
)

// State is the scheduler lifecycle state. An explicit state (instead of
// a process-wide init flag) allows clean stop and restart in tests.
type State int

const (
	StateStopped State = iota
	StateRunning
)

const (
	triggerHour = 9 // cadence runs fire at 09:00
	cleanupHour = 2 // retention fires at 02:00
	// retentionDays is how long audit rows are kept.
	retentionDays = 90
	// statsLimit caps how many aggregate rows Stats returns.
	statsLimit = 10
)

// Dispatcher is the slice of the dispatch service the scheduler drives.
type Dispatcher interface {
	SendToCadenceCohort(ctx context.Context, freq models.NewsletterFrequency) (dispatch.BulkResult, error)
}

// ActivityStore is the audit surface for aggregate records, stats, and
// retention.
type ActivityStore interface {
	Insert(ctx context.Context, activity *models.UserActivity) error
	RecentByActions(ctx context.Context, actions []string, limit int) ([]models.UserActivity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunStats is one decoded aggregate audit record.
type RunStats struct {
	Action    string             `json:"action"`
	CreatedAt time.Time          `json:"created_at"`
	Run       models.RunMetadata `json:"run"`
}

var cadenceActions = []string{
	models.ActionNewsletterWeeklySent,
	models.ActionNewsletterBiweeklySent,
	models.ActionNewsletterMonthlySent,
}

type job struct {
	name   string
	next   func(time.Time) time.Time
	run    func(context.Context)
	fireAt time.Time
}

// Scheduler runs the four recurring jobs: weekly (Mon 09:00), biweekly
// (Mon+Thu 09:00), monthly (1st 09:00), and audit cleanup (Sun 02:00),
// all in Europe/Rome.
type Scheduler struct {
	dispatcher Dispatcher
	activity   ActivityStore
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a stopped scheduler. location is the trigger timezone
// (Europe/Rome in production); now is injectable for tests.
func New(dispatcher Dispatcher, activity ActivityStore, location *time.Location, now func() time.Time, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		dispatcher: dispatcher,
		activity:   activity,
		location:   location,
		now:        now,
		logger:     logger,
	}
}

// Start launches the trigger loop. Idempotent: a second Start while
// running logs and reports false without registering anything twice.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.logger.Info("Scheduler already running, ignoring Start")
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning

	go s.loop(runCtx, s.done)
	s.logger.Info("Scheduler started", "timezone", s.location.String())
	return true
}

// Stop cancels the trigger loop and waits for it to exit. In-flight
// provider calls are bounded only by their own client timeouts.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.logger.Info("Scheduler stopped")
}

// CurrentState reports the lifecycle state.
func (s *Scheduler) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) jobs() []job {
	return []job{
		{
			name: "weekly newsletter",
			next: func(from time.Time) time.Time {
				return nextWeekdayRun(from, s.location, triggerHour, time.Monday)
			},
			run: func(ctx context.Context) {
				s.runCadence(ctx, models.FrequencyWeekly, models.ActionNewsletterWeeklySent)
			},
		},
		{
			name: "biweekly newsletter",
			next: func(from time.Time) time.Time {
				return nextWeekdayRun(from, s.location, triggerHour, time.Monday, time.Thursday)
			},
			run: func(ctx context.Context) {
				s.runCadence(ctx, models.FrequencyBiweekly, models.ActionNewsletterBiweeklySent)
			},
		},
		{
			name: "monthly newsletter",
			next: func(from time.Time) time.Time {
				return nextMonthlyRun(from, s.location, triggerHour)
			},
			run: func(ctx context.Context) {
				s.runCadence(ctx, models.FrequencyMonthly, models.ActionNewsletterMonthlySent)
			},
		},
		{
			name: "activity cleanup",
			next: func(from time.Time) time.Time {
				return nextWeekdayRun(from, s.location, cleanupHour, time.Sunday)
			},
			run: s.runCleanup,
		},
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	jobs := s.jobs()
	for i := range jobs {
		jobs[i].fireAt = jobs[i].next(s.now())
		s.logger.Info("Scheduled job", "job", jobs[i].name, "next_run", jobs[i].fireAt)
	}

	for {
		earliest := jobs[0].fireAt
		for _, j := range jobs[1:] {
			if j.fireAt.Before(earliest) {
				earliest = j.fireAt
			}
		}

		timer := time.NewTimer(earliest.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		fired := s.now()
		for i := range jobs {
			if jobs[i].fireAt.After(fired) {
				continue
			}
			s.logger.Info("Running scheduled job", "job", jobs[i].name)
			jobs[i].run(ctx)
			jobs[i].fireAt = jobs[i].next(s.now())
			s.logger.Info("Job rescheduled", "job", jobs[i].name, "next_run", jobs[i].fireAt)
		}
	}
}

// runCadence executes one scheduled cadence run and writes the
// aggregate audit record. When the cohort query itself fails, the run
// is logged and ends with no record.
func (s *Scheduler) runCadence(ctx context.Context, freq models.NewsletterFrequency, action string) {
	result, err := s.dispatcher.SendToCadenceCohort(ctx, freq)
	if err != nil {
		s.logger.Error("Cadence run failed before any send", "frequency", freq, "error", err)
		return
	}

	s.logger.Info("Cadence run complete",
		"frequency", freq,
		"success", result.Success,
		"failed", result.Failed)

	s.recordRun(ctx, action, result)
}

// recordRun writes one aggregate audit row for a completed run.
func (s *Scheduler) recordRun(ctx context.Context, action string, result dispatch.BulkResult) {
	metadata, err := models.EncodeMetadata(models.RunMetadata{
		TotalUsers: result.Success + result.Failed,
		Success:    result.Success,
		Failed:     result.Failed,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to encode run metadata", "action", action, "error", err)
		metadata = "{}"
	}

	err = s.activity.Insert(ctx, &models.UserActivity{
		ID:        uuid.NewString(),
		UserID:    models.SystemActor,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to record run", "action", action, "error", err)
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.activity.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Activity cleanup failed", "error", err)
		return
	}
	s.logger.Info("Activity cleanup complete", "deleted", deleted, "cutoff", cutoff)
}

// RunNow triggers the weekly cadence on demand. Only a failure to start
// the run (cohort query error) is reported; individual send failures
// are aggregated into the run's audit record as usual.
func (s *Scheduler) RunNow(ctx context.Context) error {
	result, err := s.dispatcher.SendToCadenceCohort(ctx, models.FrequencyWeekly)
	if err != nil {
		return fmt.Errorf("manual weekly run failed: %w", err)
	}
	s.recordRun(ctx, models.ActionNewsletterWeeklySent, result)
	return nil
}

// Stats returns the most recent aggregate records for the three cadence
// actions, newest first, with decoded metadata. Rows with corrupt
// metadata are skipped with a warning.
func (s *Scheduler) Stats(ctx context.Context) ([]RunStats, error) {
	records, err := s.activity.RecentByActions(ctx, cadenceActions, statsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler stats: %w", err)
	}

	stats := make([]RunStats, 0, len(records))
	for i := range records {
		run, err := records[i].RunMetadata()
		if err != nil {
			s.logger.Warn("Skipping stats row with bad metadata", "activity_id", records[i].ID, "error", err)
			continue
		}
		stats = append(stats, RunStats{
			Action:    records[i].Action,
			CreatedAt: records[i].CreatedAt,
			Run:       *run,
		})
	}
	return stats, nil
}

// nextWeekdayRun returns the earliest time strictly after from that
// falls on one of weekdays at hour:00 in loc.
func nextWeekdayRun(from time.Time, loc *time.Location, hour int, weekdays ...time.Weekday) time.Time {
	local := from.In(loc)
	var earliest time.Time
	for _, weekday := range weekdays {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
		days := (int(weekday) - int(local.Weekday()) + 7) % 7
		candidate = candidate.AddDate(0, 0, days)
		if !candidate.After(local) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		if earliest.IsZero() || candidate.Before(earliest) {
			earliest = candidate
		}
	}
	return earliest
}

// nextMonthlyRun returns the next first-of-month at hour:00 in loc
// strictly after from.
func nextMonthlyRun(from time.Time, loc *time.Location, hour int) time.Time {
	local := from.In(loc)
	candidate := time.Date(local.Year(), local.Month(), 1, hour, 0, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}

package poller

import (
	"context"
	"time"

	"pushrelay/internal/config"
	"pushrelay/internal/github"
	"pushrelay/internal/logger"
	"pushrelay/internal/store"
	"pushrelay/pkg/logging"
	"pushrelay/pkg/metrics"
	"pushrelay/pkg/telemetry"
)

// EventCollector is the slice of github.Collector the service needs.
type EventCollector interface {
	Collect(ctx context.Context, user string, maxResults int, cursor string) ([]github.Event, error)
}

// Deliverer is implemented by Pipeline.
type Deliverer interface {
	Deliver(ctx context.Context, candidates []Candidate) (int, error)
}

// Service runs one full poll: collect per user, aggregate, deliver. A single
// run owns its candidate batch exclusively; nothing here needs locking.
type Service struct {
	cfg       config.PollerConfig
	collector EventCollector
	store     store.Repository
	pipeline  Deliverer
	recorder  *telemetry.Recorder
	logger    logger.Logger
	now       func() time.Time
}

func NewService(cfg config.PollerConfig, collector EventCollector, repo store.Repository, pipeline Deliverer, recorder *telemetry.Recorder, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Service{
		cfg:       cfg,
		collector: collector,
		store:     repo,
		pipeline:  pipeline,
		recorder:  recorder,
		logger:    log,
		now:       time.Now,
	}
}

// Run executes one polling run. It never returns an error: every failure is
// logged and degrades the run to a smaller (possibly zero) dispatch count.
func (s *Service) Run(ctx context.Context) RunResult {
	start := s.now()
	cutoff := start.AddDate(0, 0, -s.cfg.DaysBack)

	s.logger.InfowCtx(ctx, "Polling run started",
		"users", len(s.cfg.Users),
		"cutoff", cutoff,
	)

	var allCandidates []Candidate
	usersFailed := 0

	for _, user := range s.cfg.Users {
		userCtx := logging.WithUser(ctx, user)

		candidates, ok := s.collectUser(userCtx, user, cutoff)
		if !ok {
			usersFailed++
			continue
		}
		allCandidates = append(allCandidates, candidates...)
	}

	SortByEventTime(allCandidates)
	metrics.CandidatesTotal.Add(float64(len(allCandidates)))

	sent := 0
	if len(allCandidates) == 0 {
		s.logger.InfowCtx(ctx, "No relevant commits across all users")
	} else {
		var err error
		sent, err = s.pipeline.Deliver(ctx, allCandidates)
		if err != nil {
			s.logger.ErrorwCtx(ctx, "Delivery pipeline aborted",
				"sent_before_abort", sent,
				"error", err,
			)
		}
	}

	s.logSummary(ctx)

	metrics.RunsTotal.Inc()
	metrics.ObserveRunDuration(s.now().Sub(start))

	s.logger.InfowCtx(ctx, "Polling run finished",
		"candidates", len(allCandidates),
		"sent", sent,
		"users_failed", usersFailed,
		"duration", s.now().Sub(start),
	)

	return RunResult{
		Sent:        sent,
		Candidates:  len(allCandidates),
		UsersFailed: usersFailed,
	}
}

// collectUser gathers one user's candidates. Any failure here is isolated:
// the user contributes nothing to this run and their cursor stays put, so the
// next run re-scans the same window.
func (s *Service) collectUser(ctx context.Context, user string, cutoff time.Time) ([]Candidate, bool) {
	cursor, err := s.store.GetCursor(ctx, user)
	if err != nil {
		metrics.CollectionErrorsTotal.WithLabelValues(user).Inc()
		s.logger.ErrorwCtx(ctx, "Failed to load cursor", "error", err)
		return nil, false
	}

	events, err := s.collector.Collect(ctx, user, s.cfg.MaxEventsPerUser, cursor)
	if err != nil {
		metrics.CollectionErrorsTotal.WithLabelValues(user).Inc()
		s.logger.ErrorwCtx(ctx, "Failed to collect events", "error", err)
		return nil, false
	}

	if len(events) == 0 {
		s.logger.DebugwCtx(ctx, "No new events")
		return nil, true
	}

	metrics.EventsCollectedTotal.WithLabelValues(user).Add(float64(len(events)))

	candidates := CandidatesFromEvents(user, events, cutoff)

	// Advance to the newest observed event id even when no candidate came out
	// of the batch; otherwise non-push noise is re-scanned every run. A
	// failed write is tolerated: the candidates stay in the run and the flag
	// masks absorb the re-scan next time.
	if err := s.store.SetCursor(ctx, user, events[0].ID); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to advance cursor",
			"event_id", events[0].ID,
			"error", err,
		)
	}

	s.logger.InfowCtx(ctx, "Collected events",
		"events", len(events),
		"candidates", len(candidates),
		"cursor", events[0].ID,
	)

	return candidates, true
}

// logSummary mirrors the per-run request and store-op tables the relay has
// always reported, sourced from the run's telemetry recorder.
func (s *Service) logSummary(ctx context.Context) {
	if s.recorder == nil {
		return
	}

	for _, rc := range s.recorder.Requests() {
		s.logger.InfowCtx(ctx, "External request summary",
			"host", rc.Host,
			"method", rc.Method,
			"count", rc.Count,
		)
	}
	for op, count := range s.recorder.StoreOps() {
		s.logger.InfowCtx(ctx, "Store operation summary",
			"operation", op,
			"count", count,
		)
	}
	s.recorder.Reset()
}

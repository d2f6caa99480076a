package rescorer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/hermes"
	"github.com/MikeSquared-Agency/Tally/internal/metrics"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

// Scorer recomputes and persists one submission's scores.
type Scorer interface {
	Rescore(ctx context.Context, id uuid.UUID) (*scoring.SubmissionScores, error)
}

// Rescorer keeps stored aggregates current. A ticker sweeps submissions whose
// revision moved past their scored revision, and consensus or score events
// trigger an immediate recompute.
type Rescorer struct {
	store  store.Store
	scorer Scorer
	hermes hermes.Client
	cfg    *config.Config
	logger *slog.Logger

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, sc Scorer, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Rescorer {
	return &Rescorer{
		store:    s,
		scorer:   sc,
		hermes:   h,
		cfg:      cfg,
		logger:   logger,
		inflight: make(map[uuid.UUID]bool),
		stopCh:   make(chan struct{}),
	}
}

func (r *Rescorer) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.sweepLoop(ctx)
}

func (r *Rescorer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Rescorer) sweepLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.RescoreInterval())
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep recomputes one batch of stale submissions and returns how many were
// refreshed.
func (r *Rescorer) Sweep(ctx context.Context) int {
	stale, err := r.store.ListStaleSubmissions(ctx, r.cfg.Scoring.RescoreBatchSize)
	if err != nil {
		r.logger.Error("failed to list stale submissions", "error", err)
		return 0
	}
	if len(stale) == 0 {
		return 0
	}

	r.logger.Debug("rescoring stale submissions", "count", len(stale))
	done := 0
	for _, sub := range stale {
		if r.rescore(ctx, sub.ID) {
			done++
		}
	}
	return done
}

// rescore skips a submission that another goroutine is already recomputing.
func (r *Rescorer) rescore(ctx context.Context, id uuid.UUID) bool {
	r.inflightMu.Lock()
	if r.inflight[id] {
		r.inflightMu.Unlock()
		metrics.RescoreSweeps.WithLabelValues("skipped").Inc()
		return false
	}
	r.inflight[id] = true
	r.inflightMu.Unlock()

	defer func() {
		r.inflightMu.Lock()
		delete(r.inflight, id)
		r.inflightMu.Unlock()
	}()

	if _, err := r.scorer.Rescore(ctx, id); err != nil {
		metrics.RescoreSweeps.WithLabelValues("error").Inc()
		r.logger.Warn("failed to rescore submission", "submission_id", id, "error", err)
		return false
	}
	metrics.RescoreSweeps.WithLabelValues("ok").Inc()
	return true
}

// SetupSubscriptions recomputes a submission as soon as its consensus or raw
// scores change.
func (r *Rescorer) SetupSubscriptions() {
	if r.hermes == nil {
		return
	}
	for _, subject := range []string{hermes.SubjectAllConsensusUpdated, hermes.SubjectAllScoresRecorded} {
		if err := r.hermes.Subscribe(subject, r.handleChange); err != nil {
			r.logger.Warn("failed to subscribe", "subject", subject, "error", err)
		}
	}
}

func (r *Rescorer) handleChange(subject string, _ []byte) {
	raw, ok := hermes.SubmissionFromSubject(subject)
	if !ok {
		r.logger.Warn("unexpected subject", "subject", subject)
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		r.logger.Warn("invalid submission id in subject", "subject", subject, "error", err)
		return
	}
	r.rescore(context.Background(), id)
}

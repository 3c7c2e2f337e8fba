package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"transparent_roi/internal/adapters/observability"
	"transparent_roi/internal/domain"
)

const (
	defaultSnapshotLimit = 50
	maxSnapshotLimit     = 200
)

// PricingService runs one fresh client per query and keeps a history of results.
type PricingService struct {
	newClient domain.ClientFactory
	repo      domain.SnapshotRepository
	now       func() time.Time
}

// NewPricingService wires the service; repo may be nil to skip history.
func NewPricingService(f domain.ClientFactory, r domain.SnapshotRepository) *PricingService {
	return &PricingService{newClient: f, repo: r, now: time.Now}
}

func (s *PricingService) Aggregated(ctx context.Context, f domain.QueryFilters) (domain.Outcome[domain.AggregatedResult], error) {
	cl, err := s.newClient(f)
	if err != nil {
		observability.ObserveOutcome(domain.KindAggregated, "error")
		return domain.Unfulfilled[domain.AggregatedResult](), err
	}
	out, err := cl.Aggregated(ctx)
	if err != nil {
		s.failed(domain.KindAggregated, err)
		return out, err
	}
	if a, ok := out.Get(); ok {
		s.save(ctx, aggregatedSnapshot(f, a, s.now()))
	} else {
		s.miss(ctx, domain.KindAggregated, f)
	}
	return out, nil
}

func (s *PricingService) Combined(ctx context.Context, f domain.QueryFilters) (domain.Outcome[domain.CombinedResult], error) {
	cl, err := s.newClient(f)
	if err != nil {
		observability.ObserveOutcome(domain.KindCombined, "error")
		return domain.Unfulfilled[domain.CombinedResult](), err
	}
	out, err := cl.Combined(ctx)
	if err != nil {
		s.failed(domain.KindCombined, err)
		return out, err
	}
	if c, ok := out.Get(); ok {
		s.save(ctx, combinedSnapshot(f, c, s.now()))
	} else {
		s.miss(ctx, domain.KindCombined, f)
	}
	return out, nil
}

func (s *PricingService) ListSnapshots(ctx context.Context, q domain.SnapshotsQuery) ([]domain.Snapshot, error) {
	if s.repo == nil {
		return nil, nil
	}
	if q.Limit <= 0 {
		q.Limit = defaultSnapshotLimit
	}
	if q.Limit > maxSnapshotLimit {
		q.Limit = maxSnapshotLimit
	}
	return s.repo.ListSnapshots(ctx, q)
}

// ---- history (best-effort: persistence failures never fail a query) ----

func (s *PricingService) save(ctx context.Context, snap domain.Snapshot) {
	observability.ObserveOutcome(snap.Kind, "fulfilled")
	if s.repo == nil {
		return
	}
	err := s.repo.SaveSnapshot(ctx, snap)
	observability.ObserveWrite("snapshots", err)
	if err != nil {
		log.Warn().Err(err).Str("kind", snap.Kind).Str("id", snap.ID).Msg("save snapshot failed")
	}
}

func (s *PricingService) miss(ctx context.Context, kind string, f domain.QueryFilters) {
	observability.ObserveOutcome(kind, "unfulfilled")
	if s.repo == nil {
		return
	}
	err := s.repo.LogMiss(ctx, domain.Miss{Kind: kind, Filters: f, Reason: "unfulfilled"})
	observability.ObserveWrite("fetch_misses", err)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("log miss failed")
	}
}

func (s *PricingService) failed(kind string, err error) {
	observability.ObserveOutcome(kind, "error")
	log.Error().Err(err).Str("kind", kind).Str("err_type", observability.LabelErr(err)).Msg("pricing query failed")
}

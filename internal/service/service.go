// Package service implements the solicitation lifecycle, the sealed-bid
// gate, scoring and ranking, adjudication, and contract acknowledgement.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeiden10/licitaph-sub000/internal/clock"
	"github.com/yeiden10/licitaph-sub000/internal/config"
	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

// Evaluator scores one proposal against the solicitation requirements.
// Any returned error means "no score available" and is absorbed by the
// coordinator; it never fails a ranking.
type Evaluator interface {
	Evaluate(ctx context.Context, proposal model.Proposal, requirements []model.RequirementClause) (model.ScoreComponents, error)
}

type Service struct {
	store     Store
	clock     clock.Clock
	evaluator Evaluator
	publisher events.Publisher
	excel     RankingExporter
	pdf       ContractExporter
	weights   config.ScoringWeights
	contract  config.ContractConfig
	evalLimit time.Duration
	locks     *lockRegistry
	log       zerolog.Logger
}

func New(store Store, clk clock.Clock, eval Evaluator, pub events.Publisher, excel RankingExporter, pdf ContractExporter, cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		clock:     clk,
		evaluator: eval,
		publisher: pub,
		excel:     excel,
		pdf:       pdf,
		weights:   cfg.Weights,
		contract:  cfg.Contract,
		evalLimit: cfg.Evaluator.Timeout,
		locks:     newLockRegistry(),
		log:       log,
	}
}

// emit publishes a domain event; delivery failures are logged, never
// surfaced to the caller.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("event publish failed")
	}
}

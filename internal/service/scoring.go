package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/metrics"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

// ListProposals is the issuer's read of the sealed proposals. Before the
// closing instant it fails with the gate error carrying the closing
// instant; after it, it fires the lazy OPEN -> UNDER_EVALUATION transition,
// fills in missing scores best-effort, and returns the deterministic
// ranking.
func (s *Service) ListProposals(ctx context.Context, principal model.Principal, solicitationID uuid.UUID, regenerate bool) (*model.Ranking, error) {
	sol, err := s.ownedSolicitation(ctx, principal, solicitationID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !CanIssuerListProposals(sol, now) {
		metrics.GateRejections.Inc()
		return nil, &GateClosedError{ClosingAt: sol.ClosingAt, State: sol.State}
	}

	if err := s.maybeStartEvaluation(ctx, sol, now); err != nil {
		return nil, err
	}

	proposals, err := s.store.ListProposals(ctx, solicitationID)
	if err != nil {
		return nil, err
	}

	eligible := make([]model.Proposal, 0, len(proposals))
	for _, p := range proposals {
		if p.State == model.ProposalStateWithdrawn {
			continue
		}
		eligible = append(eligible, p)
	}

	unscored := s.scoreAll(ctx, sol, eligible, regenerate)
	rankProposals(eligible)

	ranking := &model.Ranking{
		SolicitationID: solicitationID,
		Unscored:       unscored,
	}
	for i, p := range eligible {
		ranking.Proposals = append(ranking.Proposals, model.RankedProposal{Rank: i + 1, Proposal: p})
	}
	return ranking, nil
}

// maybeStartEvaluation fires the lazy transition on the first read after
// the closing instant. No timer drives this; the gate check above already
// guarantees now >= ClosingAt.
func (s *Service) maybeStartEvaluation(ctx context.Context, sol *model.Solicitation, now time.Time) error {
	if sol.State != model.SolicitationStateOpen {
		return nil
	}
	sol.State = model.SolicitationStateUnderEvaluation
	sol.EvaluationStartedAt = &now
	if err := s.store.UpdateSolicitation(ctx, sol); err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Kind:           events.KindGateOpened,
		OccurredAt:     now,
		SolicitationID: sol.ID,
	})
	return nil
}

// scoreAll asks the evaluator for every submitted proposal without a cached
// breakdown, or for all of them when regenerate is set. Evaluator failures
// leave the proposal unscored; the ranking proceeds regardless. Returns the
// number of proposals left without a score.
func (s *Service) scoreAll(ctx context.Context, sol *model.Solicitation, proposals []model.Proposal, regenerate bool) int {
	unscored := 0
	for i := range proposals {
		p := &proposals[i]
		needsScore := p.State == model.ProposalStateSubmitted && (p.Score == nil || regenerate)
		if !needsScore {
			if p.Score == nil {
				unscored++
			}
			continue
		}

		score, err := s.evaluateOne(ctx, *p, sol.Requirements)
		if err != nil {
			metrics.EvaluatorFailures.Inc()
			s.log.Warn().Err(err).
				Str("proposal_id", p.ID.String()).
				Msg("evaluator unavailable, proposal ranks unscored")
			if p.Score == nil {
				unscored++
			}
			continue
		}
		if err := s.store.SaveScore(ctx, score); err != nil {
			s.log.Error().Err(err).Str("proposal_id", p.ID.String()).Msg("persist score failed")
			if p.Score == nil {
				unscored++
			}
			continue
		}
		p.Score = score
	}
	return unscored
}

func (s *Service) evaluateOne(ctx context.Context, p model.Proposal, requirements []model.RequirementClause) (*model.ScoreBreakdown, error) {
	callCtx := ctx
	if s.evalLimit > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.evalLimit)
		defer cancel()
	}

	components, err := s.evaluator.Evaluate(callCtx, p, requirements)
	if err != nil {
		return nil, ErrEvaluatorUnavailable
	}

	score := &model.ScoreBreakdown{
		ProposalID:         p.ID,
		PriceScore:         clamp(components.Price, s.weights.Price),
		ExperienceScore:    clamp(components.Experience, s.weights.Experience),
		TechnicalScore:     clamp(components.Technical, s.weights.Technical),
		DocumentationScore: clamp(components.Documentation, s.weights.Documentation),
		ReputationScore:    clamp(components.Reputation, s.weights.Reputation),
		Rationale:          components.Rationale,
		ScoredAt:           s.clock.Now(),
	}
	score.Total = score.PriceScore + score.ExperienceScore + score.TechnicalScore +
		score.DocumentationScore + score.ReputationScore
	return score, nil
}

// rankProposals orders by descending total, then ascending price, then
// earlier submission. Unscored proposals sort after every scored one. The
// order is fully deterministic.
func rankProposals(proposals []model.Proposal) {
	sort.SliceStable(proposals, func(i, j int) bool {
		a, b := proposals[i], proposals[j]
		switch {
		case a.Score != nil && b.Score == nil:
			return true
		case a.Score == nil && b.Score != nil:
			return false
		case a.Score != nil && b.Score != nil && a.Score.Total != b.Score.Total:
			return a.Score.Total > b.Score.Total
		case a.AnnualPrice != b.AnnualPrice:
			return a.AnnualPrice < b.AnnualPrice
		default:
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
	})
}

func clamp(value, max float64) float64 {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

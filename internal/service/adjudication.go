package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/metrics"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type AdjudicateInput struct {
	WinningProposalID uuid.UUID
	Terms             model.ContractTerms
}

// Adjudicate selects the winning proposal and materializes the contract.
// The whole effect is atomic: winner WON, siblings NOT_SELECTED,
// solicitation AWARDED, one contract created. Concurrent attempts on the
// same solicitation serialize on the lock registry; the loser of the race
// gets ErrBusy (retriable) or ErrAlreadyAwarded (final).
func (s *Service) Adjudicate(ctx context.Context, principal model.Principal, solicitationID uuid.UUID, input AdjudicateInput) (*model.Contract, error) {
	if !principal.IsIssuer() {
		return nil, ErrPermissionDenied
	}

	if !s.locks.TryAcquire(solicitationID) {
		metrics.Adjudications.WithLabelValues("busy").Inc()
		return nil, ErrBusy
	}
	defer s.locks.Release(solicitationID)

	contract, err := s.adjudicateLocked(ctx, principal, solicitationID, input)
	if err != nil {
		metrics.Adjudications.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.Adjudications.WithLabelValues("awarded").Inc()
	return contract, nil
}

func (s *Service) adjudicateLocked(ctx context.Context, principal model.Principal, solicitationID uuid.UUID, input AdjudicateInput) (*model.Contract, error) {
	sol, err := s.store.GetSolicitation(ctx, solicitationID)
	if err != nil {
		return nil, err
	}
	if sol.IssuerOrgID != principal.OrgID {
		return nil, ErrPermissionDenied
	}

	// Precondition 1: state.
	switch sol.State {
	case model.SolicitationStateUnderEvaluation:
	case model.SolicitationStateAwarded:
		return nil, ErrAlreadyAwarded
	default:
		return nil, &TransitionError{Action: "adjudicate", State: sol.State}
	}

	// Precondition 2: the proposal belongs here and is still SUBMITTED.
	proposals, err := s.store.ListProposals(ctx, solicitationID)
	if err != nil {
		return nil, err
	}
	var winner *model.Proposal
	var loserIDs []uuid.UUID
	for i := range proposals {
		p := &proposals[i]
		if p.ID == input.WinningProposalID {
			winner = p
			continue
		}
		if p.State == model.ProposalStateSubmitted {
			loserIDs = append(loserIDs, p.ID)
		}
	}
	if winner == nil || winner.State != model.ProposalStateSubmitted {
		return nil, ErrProposalNotEligible
	}

	// Precondition 3: terms.
	now := s.clock.Now()
	if err := s.validateTerms(input.Terms, now); err != nil {
		return nil, err
	}

	contract := &model.Contract{
		ID:                uuid.New(),
		SolicitationID:    sol.ID,
		WinningProposalID: winner.ID,
		IssuerOrgID:       sol.IssuerOrgID,
		BidderOrgID:       winner.BidderOrgID,
		Terms:             input.Terms,
		AckState:          model.AckStatePending,
		CreatedAt:         now,
	}

	sol.State = model.SolicitationStateAwarded
	sol.ClosedOutAt = &now

	if err := s.store.Award(ctx, AwardWrite{
		Solicitation: sol,
		WinnerID:     winner.ID,
		LoserIDs:     loserIDs,
		Contract:     contract,
	}); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Kind:           events.KindAdjudicated,
		OccurredAt:     now,
		SolicitationID: sol.ID,
		ContractID:     &contract.ID,
		WinnerID:       &winner.ID,
		LoserIDs:       loserIDs,
	})
	return contract, nil
}

func (s *Service) validateTerms(terms model.ContractTerms, now time.Time) error {
	if terms.PenaltyPercentage < s.contract.PenaltyMinPercent || terms.PenaltyPercentage > s.contract.PenaltyMaxPercent {
		return fmt.Errorf("%w: penalty_percentage must be between %.0f and %.0f",
			ErrInvalidInput, s.contract.PenaltyMinPercent, s.contract.PenaltyMaxPercent)
	}
	if terms.StartDate.Before(startOfDay(now)) {
		return fmt.Errorf("%w: start_date must not be in the past", ErrInvalidInput)
	}
	if terms.EndDate != nil && terms.EndDate.Before(terms.StartDate) {
		return fmt.Errorf("%w: end_date precedes start_date", ErrInvalidInput)
	}
	switch terms.Modality {
	case model.PaymentMonthly, model.PaymentQuarterly, model.PaymentAnnual:
	default:
		return fmt.Errorf("%w: unknown payment modality %q", ErrInvalidInput, terms.Modality)
	}
	return nil
}

// startOfDay compares start dates at day granularity: a contract starting
// today is not "in the past".
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/metrics"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type SubmitProposalInput struct {
	AnnualPrice float64
	Modality    model.PaymentModality
	Narrative   string
	Acks        model.Acknowledgements
}

func (s *Service) SubmitProposal(ctx context.Context, principal model.Principal, solicitationID uuid.UUID, input SubmitProposalInput) (*model.Proposal, error) {
	if !principal.IsBidder() {
		return nil, ErrPermissionDenied
	}
	sol, err := s.store.GetSolicitation(ctx, solicitationID)
	if err != nil {
		return nil, err
	}

	// Gate first: a missed deadline must not read as "fix and resubmit".
	now := s.clock.Now()
	if !CanBidderSubmit(sol, now) {
		metrics.GateRejections.Inc()
		return nil, &GateClosedError{ClosingAt: sol.ClosingAt, State: sol.State}
	}

	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	if _, err := s.store.ActiveProposalByBidder(ctx, solicitationID, principal.OrgID); err == nil {
		return nil, ErrDuplicateProposal
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	proposal := &model.Proposal{
		ID:             uuid.New(),
		SolicitationID: solicitationID,
		BidderOrgID:    principal.OrgID,
		AnnualPrice:    input.AnnualPrice,
		Modality:       input.Modality,
		Narrative:      input.Narrative,
		Acks:           input.Acks,
		State:          model.ProposalStateSubmitted,
		SubmittedAt:    now,
	}
	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	metrics.ProposalsSubmitted.Inc()
	s.emit(ctx, events.Event{
		Kind:           events.KindProposalSubmitted,
		OccurredAt:     now,
		SolicitationID: solicitationID,
		ProposalID:     &proposal.ID,
	})
	return proposal, nil
}

// WithdrawProposal frees the bidder's slot while the gate is still open.
// A withdrawn proposal is excluded from scoring and adjudication.
func (s *Service) WithdrawProposal(ctx context.Context, principal model.Principal, solicitationID uuid.UUID) error {
	if !principal.IsBidder() {
		return ErrPermissionDenied
	}
	sol, err := s.store.GetSolicitation(ctx, solicitationID)
	if err != nil {
		return err
	}
	if !CanBidderSubmit(sol, s.clock.Now()) {
		metrics.GateRejections.Inc()
		return &GateClosedError{ClosingAt: sol.ClosingAt, State: sol.State}
	}

	proposal, err := s.store.ActiveProposalByBidder(ctx, solicitationID, principal.OrgID)
	if err != nil {
		return err
	}
	proposal.State = model.ProposalStateWithdrawn
	return s.store.UpdateProposal(ctx, proposal)
}

func validateSubmission(input SubmitProposalInput) error {
	if input.AnnualPrice <= 0 {
		return fmt.Errorf("%w: annual_price must be positive", ErrInvalidInput)
	}
	switch input.Modality {
	case model.PaymentMonthly, model.PaymentQuarterly, model.PaymentAnnual:
	default:
		return fmt.Errorf("%w: unknown payment modality %q", ErrInvalidInput, input.Modality)
	}
	if !input.Acks.AllConfirmed() {
		return fmt.Errorf("%w: all acknowledgements must be confirmed", ErrInvalidInput)
	}
	return nil
}

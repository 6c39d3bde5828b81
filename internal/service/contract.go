package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

// ContractView is a contract with its derived operational status. Internal
// notes are blanked for the bidder side.
type ContractView struct {
	Contract model.Contract
	Status   model.ContractStatus
}

func (s *Service) GetContract(ctx context.Context, principal model.Principal, id uuid.UUID) (*ContractView, error) {
	contract, err := s.visibleContract(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return s.viewOf(principal, contract), nil
}

// AcceptContract flips the bidder acknowledgement, one-way. The bidder must
// re-confirm every acknowledgement flag in the request.
func (s *Service) AcceptContract(ctx context.Context, principal model.Principal, id uuid.UUID, acks model.Acknowledgements) (*ContractView, error) {
	if !principal.IsBidder() {
		return nil, ErrPermissionDenied
	}
	contract, err := s.visibleContract(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if contract.AckState == model.AckStateAcceptedByBidder {
		return nil, fmt.Errorf("%w: contract already accepted", ErrInvalidStateTransition)
	}
	if !acks.AllConfirmed() {
		return nil, fmt.Errorf("%w: all acknowledgements must be confirmed", ErrInvalidInput)
	}

	now := s.clock.Now()
	contract.AckState = model.AckStateAcceptedByBidder
	contract.AcknowledgedAt = &now
	if err := s.store.UpdateContract(ctx, contract); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Kind:           events.KindContractAccepted,
		OccurredAt:     now,
		SolicitationID: contract.SolicitationID,
		ContractID:     &contract.ID,
	})
	return s.viewOf(principal, contract), nil
}

func (s *Service) visibleContract(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.IsIssuer() && contract.IssuerOrgID == principal.OrgID:
	case principal.IsBidder() && contract.BidderOrgID == principal.OrgID:
	default:
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *Service) viewOf(principal model.Principal, contract *model.Contract) *ContractView {
	view := &ContractView{
		Contract: *contract,
		Status:   contract.StatusAt(s.clock.Now()),
	}
	if principal.IsBidder() {
		view.Contract.Terms.InternalNotes = ""
	}
	return view
}

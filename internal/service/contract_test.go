package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

func awardedContract(t *testing.T, h *harness) *model.Contract {
	t.Helper()
	sol, winner, _ := underEvaluation(t, h)
	contract, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: winner.ID,
		Terms:             h.terms(),
	})
	require.NoError(t, err)
	return contract
}

func confirmedAcks() model.Acknowledgements {
	return model.Acknowledgements{
		ReadRequirements:     true,
		SiteInspectionDone:   true,
		PenaltyTermsAccepted: true,
	}
}

func TestAcceptContract(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	view, err := h.engine.AcceptContract(context.Background(), h.bidder, contract.ID, confirmedAcks())
	require.NoError(t, err)
	assert.Equal(t, model.AckStateAcceptedByBidder, view.Contract.AckState)
	require.NotNil(t, view.Contract.AcknowledgedAt)
	assert.Equal(t, h.clock.Now(), *view.Contract.AcknowledgedAt)
	assert.Equal(t, events.KindContractAccepted, h.publisher.last().Kind)
}

func TestAcceptContractRequiresEveryAcknowledgement(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	acks := confirmedAcks()
	acks.PenaltyTermsAccepted = false
	_, err := h.engine.AcceptContract(context.Background(), h.bidder, contract.ID, acks)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAcceptContractIsOneWay(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	_, err := h.engine.AcceptContract(context.Background(), h.bidder, contract.ID, confirmedAcks())
	require.NoError(t, err)

	_, err = h.engine.AcceptContract(context.Background(), h.bidder, contract.ID, confirmedAcks())
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestAcceptContractOnlyWinningBidder(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	// The issuer cannot accept on the bidder's behalf.
	_, err := h.engine.AcceptContract(context.Background(), h.issuer, contract.ID, confirmedAcks())
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	// Neither can the losing bidder.
	_, err = h.engine.AcceptContract(context.Background(), h.bidder2, contract.ID, confirmedAcks())
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestContractVisibility(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	_, err := h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	_, err = h.engine.GetContract(context.Background(), h.bidder, contract.ID)
	require.NoError(t, err)
	_, err = h.engine.GetContract(context.Background(), h.bidder2, contract.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestInternalNotesHiddenFromBidder(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	issuerView, err := h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, issuerView.Contract.Terms.InternalNotes)

	bidderView, err := h.engine.GetContract(context.Background(), h.bidder, contract.ID)
	require.NoError(t, err)
	assert.Empty(t, bidderView.Contract.Terms.InternalNotes)
}

func TestContractStatusDerivation(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	view, err := h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusPendingAcceptance, view.Status)

	// Not accepted by the start date: expired.
	h.clock.Set(contract.Terms.StartDate.Add(time.Hour))
	view, err = h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusExpired, view.Status)
}

func TestContractStatusActiveAndCompleted(t *testing.T) {
	h := newHarness(t)
	contract := awardedContract(t, h)

	_, err := h.engine.AcceptContract(context.Background(), h.bidder, contract.ID, confirmedAcks())
	require.NoError(t, err)

	h.clock.Set(contract.Terms.StartDate.Add(time.Hour))
	view, err := h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusActive, view.Status)

	// An end date in the past completes the contract.
	end := contract.Terms.StartDate.Add(24 * time.Hour)
	view.Contract.Terms.EndDate = &end
	require.NoError(t, h.store.UpdateContract(context.Background(), &view.Contract))
	h.clock.Set(end.Add(time.Hour))
	view, err = h.engine.GetContract(context.Background(), h.issuer, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCompleted, view.Status)
}

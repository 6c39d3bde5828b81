package service_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

// underEvaluation opens a solicitation, submits one proposal per bidder,
// moves past closing and fires the lazy transition with an issuer read.
func underEvaluation(t *testing.T, h *harness) (*model.Solicitation, *model.Proposal, *model.Proposal) {
	t.Helper()
	sol := h.openSolicitation(t, time.Hour)
	first := h.submit(t, h.bidder, sol.ID, 1000)
	second := h.submit(t, h.bidder2, sol.ID, 1200)
	h.evaluator.script(first.ID, 30)
	h.evaluator.script(second.ID, 20)
	h.clock.Set(sol.ClosingAt.Add(time.Minute))
	_, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	return sol, first, second
}

func TestAdjudicateAwardsAtomically(t *testing.T) {
	h := newHarness(t)
	sol, winner, loser := underEvaluation(t, h)

	contract, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: winner.ID,
		Terms:             h.terms(),
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, contract.WinningProposalID)
	assert.Equal(t, winner.BidderOrgID, contract.BidderOrgID)
	assert.Equal(t, model.AckStatePending, contract.AckState)

	got, err := h.engine.GetSolicitation(context.Background(), h.issuer, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SolicitationStateAwarded, got.State)
	require.NotNil(t, got.ClosedOutAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	byID := map[uuid.UUID]model.ProposalState{}
	for _, rp := range ranking.Proposals {
		byID[rp.Proposal.ID] = rp.Proposal.State
	}
	assert.Equal(t, model.ProposalStateWon, byID[winner.ID])
	assert.Equal(t, model.ProposalStateNotSelected, byID[loser.ID])

	event := h.publisher.last()
	assert.Equal(t, events.KindAdjudicated, event.Kind)
	require.NotNil(t, event.WinnerID)
	assert.Equal(t, winner.ID, *event.WinnerID)
	assert.Equal(t, []uuid.UUID{loser.ID}, event.LoserIDs)
}

func TestAdjudicateTwiceFailsFinal(t *testing.T) {
	h := newHarness(t)
	sol, winner, loser := underEvaluation(t, h)

	_, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: winner.ID,
		Terms:             h.terms(),
	})
	require.NoError(t, err)

	_, err = h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: loser.ID,
		Terms:             h.terms(),
	})
	assert.ErrorIs(t, err, service.ErrAlreadyAwarded)
}

func TestAdjudicateRequiresEvaluationState(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	p := h.submit(t, h.bidder, sol.ID, 1000)

	// Still OPEN: the gate has not passed.
	_, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: p.ID,
		Terms:             h.terms(),
	})
	var trErr *service.TransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, model.SolicitationStateOpen, trErr.State)
}

func TestAdjudicateRejectsForeignOrWithdrawnProposal(t *testing.T) {
	h := newHarness(t)
	sol, _, _ := underEvaluation(t, h)

	// A proposal id from another solicitation is not eligible.
	other := h.openSolicitation(t, time.Hour)
	stray := h.submit(t, h.bidder, other.ID, 800)
	_, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: stray.ID,
		Terms:             h.terms(),
	})
	assert.ErrorIs(t, err, service.ErrProposalNotEligible)

	_, err = h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: uuid.New(),
		Terms:             h.terms(),
	})
	assert.ErrorIs(t, err, service.ErrProposalNotEligible)
}

func TestAdjudicateValidatesTerms(t *testing.T) {
	h := newHarness(t)
	sol, winner, _ := underEvaluation(t, h)

	cases := []struct {
		name   string
		mutate func(*model.ContractTerms)
	}{
		{"penalty below minimum", func(tm *model.ContractTerms) { tm.PenaltyPercentage = 2 }},
		{"penalty above maximum", func(tm *model.ContractTerms) { tm.PenaltyPercentage = 60 }},
		{"start date in the past", func(tm *model.ContractTerms) { tm.StartDate = h.clock.Now().Add(-48 * time.Hour) }},
		{"end before start", func(tm *model.ContractTerms) {
			end := tm.StartDate.Add(-time.Hour)
			tm.EndDate = &end
		}},
		{"unknown modality", func(tm *model.ContractTerms) { tm.Modality = "WEEKLY" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms := h.terms()
			tc.mutate(&terms)
			_, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
				WinningProposalID: winner.ID,
				Terms:             terms,
			})
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	// Failed validation leaves the solicitation untouched.
	got, err := h.engine.GetSolicitation(context.Background(), h.issuer, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SolicitationStateUnderEvaluation, got.State)
}

func TestAdjudicateStartDateTodayAllowed(t *testing.T) {
	h := newHarness(t)
	sol, winner, _ := underEvaluation(t, h)

	terms := h.terms()
	// Earlier the same day than "now": valid, start dates compare at day
	// granularity.
	terms.StartDate = h.clock.Now().Truncate(24 * time.Hour)
	_, err := h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
		WinningProposalID: winner.ID,
		Terms:             terms,
	})
	assert.NoError(t, err)
}

func TestAdjudicateDeniedToBidders(t *testing.T) {
	h := newHarness(t)
	sol, winner, _ := underEvaluation(t, h)

	_, err := h.engine.Adjudicate(context.Background(), h.bidder, sol.ID, service.AdjudicateInput{
		WinningProposalID: winner.ID,
		Terms:             h.terms(),
	})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestConcurrentAdjudicationSingleWinner(t *testing.T) {
	h := newHarness(t)
	sol, first, second := underEvaluation(t, h)

	targets := []uuid.UUID{first.ID, second.ID, first.ID, second.ID}
	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
				WinningProposalID: target,
				Terms:             h.terms(),
			})
		}(i, target)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.True(t,
				errors.Is(err, service.ErrBusy) || errors.Is(err, service.ErrAlreadyAwarded),
				"unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one adjudication may land")

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	won := 0
	for _, rp := range ranking.Proposals {
		if rp.Proposal.State == model.ProposalStateWon {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

// TestAtMostOneWinnerUnderRandomSequences hammers a solicitation with a
// randomized mix of submissions, withdrawals and adjudication attempts and
// checks the terminal invariant: never more than one WON proposal and never
// more than one contract.
func TestAtMostOneWinnerUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		h := newHarness(t)
		sol := h.openSolicitation(t, time.Hour)

		bidders := []model.Principal{h.bidder, h.bidder2}
		for i := 0; i < 3; i++ {
			bidders = append(bidders, model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleBidder})
		}
		var ids []uuid.UUID
		for _, b := range bidders {
			if rng.Intn(4) == 0 {
				continue
			}
			p := h.submit(t, b, sol.ID, 800+float64(rng.Intn(1000)))
			if rng.Intn(5) == 0 {
				require.NoError(t, h.engine.WithdrawProposal(context.Background(), b, sol.ID))
				continue
			}
			h.evaluator.script(p.ID, float64(rng.Intn(35)))
			ids = append(ids, p.ID)
		}

		h.clock.Set(sol.ClosingAt.Add(time.Second))
		_, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
		require.NoError(t, err)

		attempts := rng.Intn(4) + 1
		for i := 0; i < attempts; i++ {
			target := uuid.New()
			if len(ids) > 0 && rng.Intn(3) > 0 {
				target = ids[rng.Intn(len(ids))]
			}
			_, _ = h.engine.Adjudicate(context.Background(), h.issuer, sol.ID, service.AdjudicateInput{
				WinningProposalID: target,
				Terms:             h.terms(),
			})
		}

		ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
		require.NoError(t, err)
		won := 0
		for _, rp := range ranking.Proposals {
			if rp.Proposal.State == model.ProposalStateWon {
				won++
			}
		}
		assert.LessOrEqual(t, won, 1, "round %d: more than one winner", round)
	}
}

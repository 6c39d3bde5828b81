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

func TestListProposalsSealedBeforeClosing(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	h.submit(t, h.bidder, sol.ID, 1000)

	_, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.ErrorIs(t, err, service.ErrGateClosed)

	var gateErr *service.GateClosedError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, sol.ClosingAt, gateErr.ClosingAt)
	assert.Equal(t, model.SolicitationStateOpen, gateErr.State)
}

func TestListProposalsRankedByTotal(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	low := h.submit(t, h.bidder, sol.ID, 1000)
	high := h.submit(t, h.bidder2, sol.ID, 1400)

	h.evaluator.script(low.ID, 20)
	h.evaluator.script(high.ID, 30)
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	require.Len(t, ranking.Proposals, 2)
	assert.Equal(t, 0, ranking.Unscored)

	assert.Equal(t, high.ID, ranking.Proposals[0].Proposal.ID)
	assert.Equal(t, 1, ranking.Proposals[0].Rank)
	assert.Equal(t, low.ID, ranking.Proposals[1].Proposal.ID)
	assert.Equal(t, 2, ranking.Proposals[1].Rank)
	assert.InDelta(t, 30, ranking.Proposals[0].Proposal.Score.Total, 0.001)
}

func TestRankingTieBrokenByPriceThenSubmission(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)

	cheap := h.submit(t, h.bidder, sol.ID, 900)
	h.clock.Advance(time.Minute)
	costly := h.submit(t, h.bidder2, sol.ID, 1100)

	h.evaluator.script(cheap.ID, 25)
	h.evaluator.script(costly.ID, 25)
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	require.Len(t, ranking.Proposals, 2)
	assert.Equal(t, cheap.ID, ranking.Proposals[0].Proposal.ID, "equal totals rank by lower annual price")

	// Same total and same price: the earlier submission wins.
	other := h.openSolicitation(t, time.Hour)
	first := h.submit(t, h.bidder, other.ID, 1000)
	h.clock.Advance(time.Minute)
	second := h.submit(t, h.bidder2, other.ID, 1000)
	h.evaluator.script(first.ID, 25)
	h.evaluator.script(second.ID, 25)
	h.clock.Set(other.ClosingAt)

	ranking, err = h.engine.ListProposals(context.Background(), h.issuer, other.ID, false)
	require.NoError(t, err)
	assert.Equal(t, first.ID, ranking.Proposals[0].Proposal.ID)
}

func TestEvaluatorFailureDegradesToUnscored(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	scored := h.submit(t, h.bidder, sol.ID, 1000)
	h.submit(t, h.bidder2, sol.ID, 1200)

	h.evaluator.script(scored.ID, 20)
	// bidder2's proposal has no script and fails to evaluate.
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	require.Len(t, ranking.Proposals, 2)
	assert.Equal(t, 1, ranking.Unscored)

	// Unscored proposals sort after every scored one.
	assert.Equal(t, scored.ID, ranking.Proposals[0].Proposal.ID)
	assert.Nil(t, ranking.Proposals[1].Proposal.Score)
}

func TestEvaluatorOutageRanksByPrice(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	cheap := h.submit(t, h.bidder, sol.ID, 800)
	h.submit(t, h.bidder2, sol.ID, 1200)

	h.evaluator.failAll = true
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err, "a dead evaluator must not block the issuer")
	require.Len(t, ranking.Proposals, 2)
	assert.Equal(t, 2, ranking.Unscored)
	assert.Equal(t, cheap.ID, ranking.Proposals[0].Proposal.ID)
}

func TestScoresCachedAcrossReads(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	p := h.submit(t, h.bidder, sol.ID, 1000)
	h.evaluator.script(p.ID, 20)
	h.clock.Set(sol.ClosingAt)

	_, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	_, err = h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, h.evaluator.callCount(), "cached score must not be re-requested")
}

func TestRegenerateReplacesCachedScores(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	p := h.submit(t, h.bidder, sol.ID, 1000)
	h.evaluator.script(p.ID, 20)
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	assert.InDelta(t, 20, ranking.Proposals[0].Proposal.Score.Total, 0.001)

	h.evaluator.script(p.ID, 30)
	ranking, err = h.engine.ListProposals(context.Background(), h.issuer, sol.ID, true)
	require.NoError(t, err)
	assert.InDelta(t, 30, ranking.Proposals[0].Proposal.Score.Total, 0.001)
	assert.Equal(t, 2, h.evaluator.callCount())
}

func TestComponentsClampedToWeights(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	p := h.submit(t, h.bidder, sol.ID, 1000)

	h.evaluator.scriptComponents(p.ID, model.ScoreComponents{
		Price:      120, // above the 35-point maximum
		Experience: -4,  // negative components floor at zero
		Technical:  25,
		Rationale:  "out of range on purpose",
	})
	h.clock.Set(sol.ClosingAt)

	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	score := ranking.Proposals[0].Proposal.Score
	require.NotNil(t, score)
	assert.InDelta(t, 35, score.PriceScore, 0.001)
	assert.InDelta(t, 0, score.ExperienceScore, 0.001)
	assert.InDelta(t, 25, score.TechnicalScore, 0.001)
	assert.InDelta(t, 60, score.Total, 0.001)
}

func TestFirstReadAfterClosingStartsEvaluation(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	p := h.submit(t, h.bidder, sol.ID, 1000)
	h.evaluator.script(p.ID, 20)

	readAt := sol.ClosingAt.Add(30 * time.Minute)
	h.clock.Set(readAt)
	_, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)

	got, err := h.engine.GetSolicitation(context.Background(), h.issuer, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SolicitationStateUnderEvaluation, got.State)
	require.NotNil(t, got.EvaluationStartedAt)
	assert.Equal(t, readAt, *got.EvaluationStartedAt)
	assert.Contains(t, h.publisher.kinds(), events.KindGateOpened)

	// A second read does not fire the transition again.
	before := len(h.publisher.kinds())
	h.clock.Advance(time.Minute)
	_, err = h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	assert.Len(t, h.publisher.kinds(), before)
	got, err = h.engine.GetSolicitation(context.Background(), h.issuer, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, readAt, *got.EvaluationStartedAt)
}

func TestCancelledSolicitationStaysSealedUntilClosing(t *testing.T) {
	h := newHarness(t)
	sol := h.openSolicitation(t, time.Hour)
	h.submit(t, h.bidder, sol.ID, 1000)
	_, err := h.engine.Cancel(context.Background(), h.issuer, sol.ID)
	require.NoError(t, err)

	// Cancelling early does not unseal the box.
	_, err = h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	assert.ErrorIs(t, err, service.ErrGateClosed)

	// After the original closing instant the proposals become readable.
	h.clock.Set(sol.ClosingAt)
	ranking, err := h.engine.ListProposals(context.Background(), h.issuer, sol.ID, false)
	require.NoError(t, err)
	assert.Len(t, ranking.Proposals, 1)
}

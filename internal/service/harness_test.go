package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeiden10/licitaph-sub000/internal/clock"
	"github.com/yeiden10/licitaph-sub000/internal/config"
	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/export"
	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/repository"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{AccessSecret: "secret"},
		Evaluator:   config.EvaluatorConfig{Timeout: time.Second},
		Weights: config.ScoringWeights{
			Price:         35,
			Experience:    25,
			Technical:     25,
			Documentation: 10,
			Reputation:    5,
		},
		Contract: config.ContractConfig{
			PenaltyMinPercent: 5,
			PenaltyMaxPercent: 50,
		},
	}
}

// fakeEvaluator returns scripted components per proposal id; unscripted
// proposals fail like an unreachable evaluator.
type fakeEvaluator struct {
	mu      sync.Mutex
	scripts map[uuid.UUID]model.ScoreComponents
	calls   int
	failAll bool
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{scripts: make(map[uuid.UUID]model.ScoreComponents)}
}

func (f *fakeEvaluator) script(id uuid.UUID, total float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Spread the requested total over the price component for simplicity;
	// callers that care about components script them directly.
	f.scripts[id] = model.ScoreComponents{Price: total, Rationale: "scripted"}
}

func (f *fakeEvaluator) scriptComponents(id uuid.UUID, components model.ScoreComponents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[id] = components
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEvaluator) Evaluate(_ context.Context, proposal model.Proposal, _ []model.RequirementClause) (model.ScoreComponents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAll {
		return model.ScoreComponents{}, errors.New("evaluator offline")
	}
	components, ok := f.scripts[proposal.ID]
	if !ok {
		return model.ScoreComponents{}, errors.New("no script for proposal")
	}
	return components, nil
}

// capturePublisher records emitted events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]events.Kind, 0, len(p.events))
	for _, e := range p.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (p *capturePublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type harness struct {
	engine    *service.Service
	store     *repository.Memory
	clock     *clock.Fake
	evaluator *fakeEvaluator
	publisher *capturePublisher
	issuer    model.Principal
	bidder    model.Principal
	bidder2   model.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repository.NewMemory()
	clk := clock.NewFake(testStart)
	eval := newFakeEvaluator()
	publisher := &capturePublisher{}
	engine := service.New(
		store, clk, eval, publisher,
		export.NewRankingExcel(), export.NewContractPDF(),
		testConfig(), zerolog.Nop(),
	)
	return &harness{
		engine:    engine,
		store:     store,
		clock:     clk,
		evaluator: eval,
		publisher: publisher,
		issuer:    model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleIssuer},
		bidder:    model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleBidder},
		bidder2:   model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleBidder},
	}
}

func (h *harness) createInput(closingIn time.Duration) service.CreateSolicitationInput {
	return service.CreateSolicitationInput{
		Title:       "Annual elevator maintenance",
		Category:    "maintenance",
		Description: "Full service contract for two elevators.",
		ClosingAt:   h.clock.Now().Add(closingIn),
		Requirements: []model.RequirementClause{
			{Title: "Certified technicians", Description: "All staff certified.", Mandatory: true, AnswerKind: model.AnswerKindBoolean},
		},
	}
}

// openSolicitation creates and publishes a solicitation closing after the
// given duration.
func (h *harness) openSolicitation(t *testing.T, closingIn time.Duration) *model.Solicitation {
	t.Helper()
	ctx := context.Background()
	sol, err := h.engine.CreateSolicitation(ctx, h.issuer, h.createInput(closingIn))
	require.NoError(t, err)
	sol, err = h.engine.Publish(ctx, h.issuer, sol.ID)
	require.NoError(t, err)
	return sol
}

func (h *harness) submitInput(price float64) service.SubmitProposalInput {
	return service.SubmitProposalInput{
		AnnualPrice: price,
		Modality:    model.PaymentMonthly,
		Narrative:   "We maintain elevators across the city.",
		Acks: model.Acknowledgements{
			ReadRequirements:     true,
			SiteInspectionDone:   true,
			PenaltyTermsAccepted: true,
		},
	}
}

func (h *harness) submit(t *testing.T, bidder model.Principal, solID uuid.UUID, price float64) *model.Proposal {
	t.Helper()
	proposal, err := h.engine.SubmitProposal(context.Background(), bidder, solID, h.submitInput(price))
	require.NoError(t, err)
	return proposal
}

func (h *harness) terms() model.ContractTerms {
	return model.ContractTerms{
		StartDate:         h.clock.Now().Add(48 * time.Hour),
		Modality:          model.PaymentMonthly,
		PenaltyPercentage: 10,
		SpecialConditions: "Monthly preventive visit.",
		InternalNotes:     "Negotiated down from 1300.",
	}
}

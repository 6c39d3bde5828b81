package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type CreateSolicitationInput struct {
	Title              string
	Category           string
	Description        string
	BudgetMin          *float64
	BudgetMax          *float64
	ClosingAt          time.Time
	Requirements       []model.RequirementClause
	InspectionAt       *time.Time
	InspectionLocation string
	SpecialConditions  string
}

// UpdateSolicitationInput carries patch semantics: nil means unchanged.
type UpdateSolicitationInput struct {
	Title              *string
	Category           *string
	Description        *string
	BudgetMin          *float64
	BudgetMax          *float64
	ClosingAt          *time.Time
	Requirements       []model.RequirementClause
	InspectionAt       *time.Time
	InspectionLocation *string
	SpecialConditions  *string
}

func (in UpdateSolicitationInput) touchesStructural() bool {
	return in.Title != nil || in.Category != nil || in.Description != nil ||
		in.BudgetMin != nil || in.BudgetMax != nil || in.ClosingAt != nil ||
		in.Requirements != nil
}

func (s *Service) CreateSolicitation(ctx context.Context, principal model.Principal, input CreateSolicitationInput) (*model.Solicitation, error) {
	if !principal.IsIssuer() {
		return nil, ErrPermissionDenied
	}
	if input.BudgetMin != nil && input.BudgetMax != nil && *input.BudgetMin > *input.BudgetMax {
		return nil, fmt.Errorf("%w: budget_min exceeds budget_max", ErrInvalidInput)
	}

	sol := &model.Solicitation{
		ID:                 uuid.New(),
		IssuerOrgID:        principal.OrgID,
		Title:              strings.TrimSpace(input.Title),
		Category:           strings.TrimSpace(input.Category),
		Description:        input.Description,
		BudgetMin:          input.BudgetMin,
		BudgetMax:          input.BudgetMax,
		ClosingAt:          input.ClosingAt.UTC(),
		State:              model.SolicitationStateDraft,
		Requirements:       input.Requirements,
		InspectionAt:       input.InspectionAt,
		InspectionLocation: input.InspectionLocation,
		SpecialConditions:  input.SpecialConditions,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.store.CreateSolicitation(ctx, sol); err != nil {
		return nil, err
	}
	return sol, nil
}

func (s *Service) GetSolicitation(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Solicitation, error) {
	sol, err := s.store.GetSolicitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsIssuer() && sol.IssuerOrgID != principal.OrgID {
		return nil, ErrPermissionDenied
	}
	// Drafts are invisible to bidders.
	if principal.IsBidder() && sol.State == model.SolicitationStateDraft {
		return nil, ErrNotFound
	}
	return sol, nil
}

func (s *Service) UpdateSolicitation(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateSolicitationInput) (*model.Solicitation, error) {
	sol, err := s.ownedSolicitation(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	switch sol.State {
	case model.SolicitationStateDraft:
		// Everything is still editable.
	case model.SolicitationStateOpen:
		if input.ClosingAt != nil {
			return nil, &LockedError{Field: "closing_at", State: sol.State}
		}
		if input.touchesStructural() {
			return nil, &LockedError{Field: "structural fields", State: sol.State}
		}
	default:
		return nil, &LockedError{Field: "solicitation", State: sol.State}
	}

	applySolicitationPatch(sol, input)
	if sol.BudgetMin != nil && sol.BudgetMax != nil && *sol.BudgetMin > *sol.BudgetMax {
		return nil, fmt.Errorf("%w: budget_min exceeds budget_max", ErrInvalidInput)
	}
	if err := s.store.UpdateSolicitation(ctx, sol); err != nil {
		return nil, err
	}
	return sol, nil
}

func (s *Service) Publish(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Solicitation, error) {
	sol, err := s.ownedSolicitation(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if sol.State != model.SolicitationStateDraft {
		return nil, &TransitionError{Action: "publish", State: sol.State}
	}

	now := s.clock.Now()
	if err := validatePublish(sol, now); err != nil {
		return nil, err
	}

	sol.State = model.SolicitationStateOpen
	sol.PublishedAt = &now
	if err := s.store.UpdateSolicitation(ctx, sol); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Kind:           events.KindSolicitationPublished,
		OccurredAt:     now,
		SolicitationID: sol.ID,
	})
	return sol, nil
}

func (s *Service) Cancel(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Solicitation, error) {
	sol, err := s.ownedSolicitation(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if sol.State != model.SolicitationStateOpen && sol.State != model.SolicitationStateUnderEvaluation {
		return nil, &TransitionError{Action: "cancel", State: sol.State}
	}

	now := s.clock.Now()
	sol.State = model.SolicitationStateCancelled
	sol.ClosedOutAt = &now
	if err := s.store.UpdateSolicitation(ctx, sol); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Kind:           events.KindSolicitationCancelled,
		OccurredAt:     now,
		SolicitationID: sol.ID,
	})
	return sol, nil
}

func (s *Service) ownedSolicitation(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Solicitation, error) {
	if !principal.IsIssuer() {
		return nil, ErrPermissionDenied
	}
	sol, err := s.store.GetSolicitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if sol.IssuerOrgID != principal.OrgID {
		return nil, ErrPermissionDenied
	}
	return sol, nil
}

func validatePublish(sol *model.Solicitation, now time.Time) error {
	var missing []string
	if sol.Title == "" {
		missing = append(missing, "title")
	}
	if sol.Category == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(sol.Description) == "" {
		missing = append(missing, "description")
	}
	if len(sol.Requirements) == 0 {
		missing = append(missing, "requirements")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !sol.ClosingAt.After(now) {
		return fmt.Errorf("%w: closing_at must be in the future", ErrInvalidInput)
	}
	return nil
}

func applySolicitationPatch(sol *model.Solicitation, input UpdateSolicitationInput) {
	if input.Title != nil {
		sol.Title = strings.TrimSpace(*input.Title)
	}
	if input.Category != nil {
		sol.Category = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		sol.Description = *input.Description
	}
	if input.BudgetMin != nil {
		sol.BudgetMin = input.BudgetMin
	}
	if input.BudgetMax != nil {
		sol.BudgetMax = input.BudgetMax
	}
	if input.ClosingAt != nil {
		sol.ClosingAt = input.ClosingAt.UTC()
	}
	if input.Requirements != nil {
		sol.Requirements = input.Requirements
	}
	if input.InspectionAt != nil {
		sol.InspectionAt = input.InspectionAt
	}
	if input.InspectionLocation != nil {
		sol.InspectionLocation = *input.InspectionLocation
	}
	if input.SpecialConditions != nil {
		sol.SpecialConditions = *input.SpecialConditions
	}
}

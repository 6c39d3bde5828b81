package model

import (
	"time"

	"github.com/google/uuid"
)

type SolicitationState string

const (
	SolicitationStateDraft           SolicitationState = "DRAFT"
	SolicitationStateOpen            SolicitationState = "OPEN"
	SolicitationStateUnderEvaluation SolicitationState = "UNDER_EVALUATION"
	SolicitationStateAwarded         SolicitationState = "AWARDED"
	SolicitationStateCancelled       SolicitationState = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s SolicitationState) Terminal() bool {
	return s == SolicitationStateAwarded || s == SolicitationStateCancelled
}

type AnswerKind string

const (
	AnswerKindBoolean  AnswerKind = "BOOLEAN"
	AnswerKindText     AnswerKind = "TEXT"
	AnswerKindDocument AnswerKind = "DOCUMENT"
)

type RequirementClause struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Mandatory   bool       `json:"mandatory"`
	Curable     bool       `json:"curable"`
	AnswerKind  AnswerKind `json:"answer_kind"`
}

type Solicitation struct {
	ID          uuid.UUID
	IssuerOrgID uuid.UUID
	Title       string
	Category    string
	Description string
	BudgetMin   *float64
	BudgetMax   *float64
	// ClosingAt is immutable once the solicitation is OPEN.
	ClosingAt    time.Time
	State        SolicitationState
	Requirements []RequirementClause

	// Operational fields, editable while OPEN.
	InspectionAt       *time.Time
	InspectionLocation string
	SpecialConditions  string

	CreatedAt   time.Time
	PublishedAt *time.Time
	// EvaluationStartedAt records when the lazy OPEN -> UNDER_EVALUATION
	// transition fired, which can be later than ClosingAt.
	EvaluationStartedAt *time.Time
	ClosedOutAt         *time.Time
}

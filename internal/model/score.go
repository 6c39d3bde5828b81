package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreBreakdown holds the weighted component scores an external evaluator
// produced for one proposal. Each component is capped by its configured
// weight; Total is the sum of components.
type ScoreBreakdown struct {
	ProposalID         uuid.UUID `json:"proposal_id"`
	PriceScore         float64   `json:"price_score"`
	ExperienceScore    float64   `json:"experience_score"`
	TechnicalScore     float64   `json:"technical_score"`
	DocumentationScore float64   `json:"documentation_score"`
	ReputationScore    float64   `json:"reputation_score"`
	Total              float64   `json:"total"`
	Rationale          string    `json:"rationale"`
	ScoredAt           time.Time `json:"scored_at"`
}

// ScoreComponents is what the external evaluator returns before the
// coordinator clamps components to their weights and fills in identity
// and timing.
type ScoreComponents struct {
	Price         float64 `json:"price_score"`
	Experience    float64 `json:"experience_score"`
	Technical     float64 `json:"technical_score"`
	Documentation float64 `json:"documentation_score"`
	Reputation    float64 `json:"reputation_score"`
	Rationale     string  `json:"rationale"`
}

// RankedProposal pairs a proposal with its rank position. Proposals without
// a score sort after all scored ones.
type RankedProposal struct {
	Rank     int
	Proposal Proposal
}

type Ranking struct {
	SolicitationID uuid.UUID
	Proposals      []RankedProposal
	// Unscored counts proposals whose evaluator call failed; the ranking
	// is degraded but still usable.
	Unscored int
}

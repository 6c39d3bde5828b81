package model

import (
	"time"

	"github.com/google/uuid"
)

type ProposalState string

const (
	ProposalStateSubmitted   ProposalState = "SUBMITTED"
	ProposalStateWithdrawn   ProposalState = "WITHDRAWN"
	ProposalStateWon         ProposalState = "WON"
	ProposalStateNotSelected ProposalState = "NOT_SELECTED"
)

type PaymentModality string

const (
	PaymentMonthly   PaymentModality = "MONTHLY"
	PaymentQuarterly PaymentModality = "QUARTERLY"
	PaymentAnnual    PaymentModality = "ANNUAL"
)

// Acknowledgements are the attestations a bidder must make when submitting
// and again when accepting a contract.
type Acknowledgements struct {
	ReadRequirements     bool `json:"read_requirements"`
	SiteInspectionDone   bool `json:"site_inspection_done"`
	PenaltyTermsAccepted bool `json:"penalty_terms_accepted"`
}

func (a Acknowledgements) AllConfirmed() bool {
	return a.ReadRequirements && a.SiteInspectionDone && a.PenaltyTermsAccepted
}

type Proposal struct {
	ID             uuid.UUID
	SolicitationID uuid.UUID
	BidderOrgID    uuid.UUID
	AnnualPrice    float64
	Modality       PaymentModality
	Narrative      string
	Acks           Acknowledgements
	State          ProposalState
	SubmittedAt    time.Time

	// Score is nil until the coordinator has run, or when the evaluator
	// was unavailable for this proposal.
	Score *ScoreBreakdown
}

// Active reports whether the proposal still occupies the bidder's
// one-proposal-per-solicitation slot.
func (p *Proposal) Active() bool {
	return p.State != ProposalStateWithdrawn
}

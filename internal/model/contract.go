package model

import (
	"time"

	"github.com/google/uuid"
)

type AcknowledgementState string

const (
	AckStatePending          AcknowledgementState = "PENDING"
	AckStateAcceptedByBidder AcknowledgementState = "ACCEPTED_BY_BIDDER"
)

// ContractStatus is derived from the clock at read time, never stored.
type ContractStatus string

const (
	ContractStatusPendingAcceptance ContractStatus = "PENDING_ACCEPTANCE"
	ContractStatusActive            ContractStatus = "ACTIVE"
	ContractStatusCompleted         ContractStatus = "COMPLETED"
	ContractStatusExpired           ContractStatus = "EXPIRED"
)

type ContractTerms struct {
	StartDate         time.Time
	EndDate           *time.Time
	Modality          PaymentModality
	PenaltyPercentage float64
	SpecialConditions string
	// InternalNotes are issuer-only and must never be serialized to the
	// bidder.
	InternalNotes string
}

type Contract struct {
	ID                uuid.UUID
	SolicitationID    uuid.UUID
	WinningProposalID uuid.UUID
	IssuerOrgID       uuid.UUID
	BidderOrgID       uuid.UUID
	Terms             ContractTerms
	AckState          AcknowledgementState
	AcknowledgedAt    *time.Time
	CreatedAt         time.Time
}

// StatusAt derives the operational status from the given instant. A contract
// the bidder never countersigned expires once its start date has passed.
func (c *Contract) StatusAt(now time.Time) ContractStatus {
	if c.AckState == AckStatePending {
		if now.After(c.Terms.StartDate) {
			return ContractStatusExpired
		}
		return ContractStatusPendingAcceptance
	}
	if c.Terms.EndDate != nil && now.After(*c.Terms.EndDate) {
		return ContractStatusCompleted
	}
	return ContractStatusActive
}

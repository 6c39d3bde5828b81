// Package events defines the domain events the engine emits for external
// dispatchers (notifications, reporting). Publishing is fire-and-forget:
// a failed publish is logged by the caller and never fails the operation
// that produced the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSolicitationPublished Kind = "solicitation.published"
	KindSolicitationCancelled Kind = "solicitation.cancelled"
	KindProposalSubmitted     Kind = "proposal.submitted"
	KindGateOpened            Kind = "gate.opened"
	KindAdjudicated           Kind = "solicitation.adjudicated"
	KindContractAccepted      Kind = "contract.accepted"
)

type Event struct {
	Kind           Kind        `json:"kind"`
	OccurredAt     time.Time   `json:"occurred_at"`
	SolicitationID uuid.UUID   `json:"solicitation_id"`
	ProposalID     *uuid.UUID  `json:"proposal_id,omitempty"`
	ContractID     *uuid.UUID  `json:"contract_id,omitempty"`
	WinnerID       *uuid.UUID  `json:"winner_id,omitempty"`
	LoserIDs       []uuid.UUID `json:"loser_ids,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

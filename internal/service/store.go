package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

// Store is the persistence boundary of the engine. Implementations must
// return ErrNotFound for missing rows and make Award atomic: either every
// write in it lands or none do.
type Store interface {
	CreateSolicitation(ctx context.Context, sol *model.Solicitation) error
	GetSolicitation(ctx context.Context, id uuid.UUID) (*model.Solicitation, error)
	UpdateSolicitation(ctx context.Context, sol *model.Solicitation) error

	CreateProposal(ctx context.Context, p *model.Proposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	UpdateProposal(ctx context.Context, p *model.Proposal) error
	// ListProposals returns all proposals of a solicitation with any cached
	// score attached, ordered by submission instant.
	ListProposals(ctx context.Context, solicitationID uuid.UUID) ([]model.Proposal, error)
	// ActiveProposalByBidder returns the bidder's non-withdrawn proposal for
	// the solicitation, or ErrNotFound.
	ActiveProposalByBidder(ctx context.Context, solicitationID, bidderOrgID uuid.UUID) (*model.Proposal, error)
	SaveScore(ctx context.Context, score *model.ScoreBreakdown) error

	// Award applies the adjudication result in one atomic write: the winner
	// becomes WON, the listed losers NOT_SELECTED, the solicitation AWARDED,
	// and the contract is created.
	Award(ctx context.Context, aw AwardWrite) error

	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ContractBySolicitation(ctx context.Context, solicitationID uuid.UUID) (*model.Contract, error)
	UpdateContract(ctx context.Context, c *model.Contract) error
}

type AwardWrite struct {
	Solicitation *model.Solicitation
	WinnerID     uuid.UUID
	LoserIDs     []uuid.UUID
	Contract     *model.Contract
}

package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

// Memory is an in-process implementation of service.Store. It backs tests
// and DSN-less development runs. All methods copy on the way in and out so
// callers never share memory with the store.
type Memory struct {
	mu            sync.Mutex
	solicitations map[uuid.UUID]model.Solicitation
	proposals     map[uuid.UUID]model.Proposal
	scores        map[uuid.UUID]model.ScoreBreakdown
	contracts     map[uuid.UUID]model.Contract
}

func NewMemory() *Memory {
	return &Memory{
		solicitations: make(map[uuid.UUID]model.Solicitation),
		proposals:     make(map[uuid.UUID]model.Proposal),
		scores:        make(map[uuid.UUID]model.ScoreBreakdown),
		contracts:     make(map[uuid.UUID]model.Contract),
	}
}

func (m *Memory) CreateSolicitation(_ context.Context, sol *model.Solicitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solicitations[sol.ID] = copySolicitation(*sol)
	return nil
}

func (m *Memory) GetSolicitation(_ context.Context, id uuid.UUID) (*model.Solicitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sol, ok := m.solicitations[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	out := copySolicitation(sol)
	return &out, nil
}

func (m *Memory) UpdateSolicitation(_ context.Context, sol *model.Solicitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.solicitations[sol.ID]; !ok {
		return service.ErrNotFound
	}
	m.solicitations[sol.ID] = copySolicitation(*sol)
	return nil
}

func (m *Memory) CreateProposal(_ context.Context, p *model.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	stored.Score = nil
	m.proposals[p.ID] = stored
	return nil
}

func (m *Memory) GetProposal(_ context.Context, id uuid.UUID) (*model.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	out := m.withScore(p)
	return &out, nil
}

func (m *Memory) UpdateProposal(_ context.Context, p *model.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.proposals[p.ID]
	if !ok {
		return service.ErrNotFound
	}
	stored.State = p.State
	m.proposals[p.ID] = stored
	return nil
}

func (m *Memory) ListProposals(_ context.Context, solicitationID uuid.UUID) ([]model.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Proposal
	for _, p := range m.proposals {
		if p.SolicitationID == solicitationID {
			out = append(out, m.withScore(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *Memory) ActiveProposalByBidder(_ context.Context, solicitationID, bidderOrgID uuid.UUID) (*model.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.proposals {
		if p.SolicitationID == solicitationID && p.BidderOrgID == bidderOrgID && p.State != model.ProposalStateWithdrawn {
			out := m.withScore(p)
			return &out, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Memory) SaveScore(_ context.Context, score *model.ScoreBreakdown) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[score.ProposalID]; !ok {
		return service.ErrNotFound
	}
	m.scores[score.ProposalID] = *score
	return nil
}

func (m *Memory) Award(_ context.Context, aw service.AwardWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	winner, ok := m.proposals[aw.WinnerID]
	if !ok || winner.State != model.ProposalStateSubmitted {
		return service.ErrProposalNotEligible
	}
	if _, ok := m.solicitations[aw.Solicitation.ID]; !ok {
		return service.ErrNotFound
	}

	winner.State = model.ProposalStateWon
	m.proposals[winner.ID] = winner
	for _, id := range aw.LoserIDs {
		loser, ok := m.proposals[id]
		if !ok || loser.State != model.ProposalStateSubmitted {
			continue
		}
		loser.State = model.ProposalStateNotSelected
		m.proposals[id] = loser
	}
	m.solicitations[aw.Solicitation.ID] = copySolicitation(*aw.Solicitation)
	m.contracts[aw.Contract.ID] = *aw.Contract
	return nil
}

func (m *Memory) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *Memory) ContractBySolicitation(_ context.Context, solicitationID uuid.UUID) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contracts {
		if c.SolicitationID == solicitationID {
			out := c
			return &out, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Memory) UpdateContract(_ context.Context, c *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.ID]; !ok {
		return service.ErrNotFound
	}
	m.contracts[c.ID] = *c
	return nil
}

func (m *Memory) withScore(p model.Proposal) model.Proposal {
	if score, ok := m.scores[p.ID]; ok {
		copied := score
		p.Score = &copied
	} else {
		p.Score = nil
	}
	return p
}

func copySolicitation(sol model.Solicitation) model.Solicitation {
	out := sol
	out.Requirements = append([]model.RequirementClause(nil), sol.Requirements...)
	return out
}

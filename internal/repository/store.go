package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

// Store is the Postgres-backed implementation of service.Store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type solicitationRow struct {
	ID                  uuid.UUID
	IssuerOrgID         uuid.UUID
	Title               string
	Category            string
	Description         string
	BudgetMin           *float64
	BudgetMax           *float64
	ClosingAt           time.Time
	State               string
	Requirements        []byte
	InspectionAt        *time.Time
	InspectionLocation  string
	SpecialConditions   string
	CreatedAt           time.Time
	PublishedAt         *time.Time
	EvaluationStartedAt *time.Time
	ClosedOutAt         *time.Time
}

func (r *Store) CreateSolicitation(ctx context.Context, sol *model.Solicitation) error {
	requirements, err := json.Marshal(sol.Requirements)
	if err != nil {
		return fmt.Errorf("encode requirements: %w", err)
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO solicitations (
			id, issuer_org_id, title, category, description,
			budget_min, budget_max, closing_at, state, requirements,
			inspection_at, inspection_location, special_conditions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?::jsonb, ?, ?, ?, ?)
	`, sol.ID, sol.IssuerOrgID, sol.Title, sol.Category, sol.Description,
		sol.BudgetMin, sol.BudgetMax, sol.ClosingAt, sol.State, string(requirements),
		sol.InspectionAt, sol.InspectionLocation, sol.SpecialConditions, sol.CreatedAt,
	).Error
}

func (r *Store) GetSolicitation(ctx context.Context, id uuid.UUID) (*model.Solicitation, error) {
	var row solicitationRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, issuer_org_id, title, category, description,
			budget_min, budget_max, closing_at, state, requirements,
			inspection_at, inspection_location, special_conditions,
			created_at, published_at, evaluation_started_at, closed_out_at
		FROM solicitations
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return rowToSolicitation(row)
}

func (r *Store) UpdateSolicitation(ctx context.Context, sol *model.Solicitation) error {
	return updateSolicitation(r.db.WithContext(ctx), sol)
}

func updateSolicitation(tx *gorm.DB, sol *model.Solicitation) error {
	requirements, err := json.Marshal(sol.Requirements)
	if err != nil {
		return fmt.Errorf("encode requirements: %w", err)
	}
	result := tx.Exec(`
		UPDATE solicitations SET
			title = ?, category = ?, description = ?,
			budget_min = ?, budget_max = ?, closing_at = ?, state = ?,
			requirements = ?::jsonb, inspection_at = ?, inspection_location = ?,
			special_conditions = ?, published_at = ?, evaluation_started_at = ?,
			closed_out_at = ?
		WHERE id = ?
	`, sol.Title, sol.Category, sol.Description,
		sol.BudgetMin, sol.BudgetMax, sol.ClosingAt, sol.State,
		string(requirements), sol.InspectionAt, sol.InspectionLocation,
		sol.SpecialConditions, sol.PublishedAt, sol.EvaluationStartedAt,
		sol.ClosedOutAt, sol.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

type proposalRow struct {
	ID                 uuid.UUID
	SolicitationID     uuid.UUID
	BidderOrgID        uuid.UUID
	AnnualPrice        float64
	Modality           string
	Narrative          string
	AckReadReqs        bool
	AckSiteInspection  bool
	AckPenaltyTerms    bool
	State              string
	SubmittedAt        time.Time
	PriceScore         *float64
	ExperienceScore    *float64
	TechnicalScore     *float64
	DocumentationScore *float64
	ReputationScore    *float64
	Total              *float64
	Rationale          *string
	ScoredAt           *time.Time
}

const proposalSelect = `
	SELECT
		p.id, p.solicitation_id, p.bidder_org_id, p.annual_price,
		p.modality, p.narrative,
		p.ack_read_requirements AS ack_read_reqs,
		p.ack_site_inspection, p.ack_penalty_terms,
		p.state, p.submitted_at,
		s.price_score, s.experience_score, s.technical_score,
		s.documentation_score, s.reputation_score, s.total,
		s.rationale, s.scored_at
	FROM proposals p
	LEFT JOIN proposal_scores s ON s.proposal_id = p.id
`

func (r *Store) CreateProposal(ctx context.Context, p *model.Proposal) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO proposals (
			id, solicitation_id, bidder_org_id, annual_price, modality,
			narrative, ack_read_requirements, ack_site_inspection,
			ack_penalty_terms, state, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SolicitationID, p.BidderOrgID, p.AnnualPrice, p.Modality,
		p.Narrative, p.Acks.ReadRequirements, p.Acks.SiteInspectionDone,
		p.Acks.PenaltyTermsAccepted, p.State, p.SubmittedAt,
	).Error
}

func (r *Store) GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var row proposalRow
	err := r.db.WithContext(ctx).Raw(proposalSelect+` WHERE p.id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	proposal := rowToProposal(row)
	return &proposal, nil
}

func (r *Store) UpdateProposal(ctx context.Context, p *model.Proposal) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE proposals SET state = ? WHERE id = ?
	`, p.State, p.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *Store) ListProposals(ctx context.Context, solicitationID uuid.UUID) ([]model.Proposal, error) {
	var rows []proposalRow
	err := r.db.WithContext(ctx).Raw(
		proposalSelect+` WHERE p.solicitation_id = ? ORDER BY p.submitted_at ASC`,
		solicitationID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	proposals := make([]model.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, rowToProposal(row))
	}
	return proposals, nil
}

func (r *Store) ActiveProposalByBidder(ctx context.Context, solicitationID, bidderOrgID uuid.UUID) (*model.Proposal, error) {
	var row proposalRow
	err := r.db.WithContext(ctx).Raw(
		proposalSelect+` WHERE p.solicitation_id = ? AND p.bidder_org_id = ? AND p.state <> 'WITHDRAWN'`,
		solicitationID, bidderOrgID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	proposal := rowToProposal(row)
	return &proposal, nil
}

func (r *Store) SaveScore(ctx context.Context, score *model.ScoreBreakdown) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO proposal_scores (
			proposal_id, price_score, experience_score, technical_score,
			documentation_score, reputation_score, total, rationale, scored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (proposal_id) DO UPDATE SET
			price_score = EXCLUDED.price_score,
			experience_score = EXCLUDED.experience_score,
			technical_score = EXCLUDED.technical_score,
			documentation_score = EXCLUDED.documentation_score,
			reputation_score = EXCLUDED.reputation_score,
			total = EXCLUDED.total,
			rationale = EXCLUDED.rationale,
			scored_at = EXCLUDED.scored_at
	`, score.ProposalID, score.PriceScore, score.ExperienceScore, score.TechnicalScore,
		score.DocumentationScore, score.ReputationScore, score.Total, score.Rationale,
		score.ScoredAt,
	).Error
}

// Award runs the whole adjudication effect inside one database transaction.
func (r *Store) Award(ctx context.Context, aw service.AwardWrite) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE proposals SET state = 'WON' WHERE id = ? AND state = 'SUBMITTED'
		`, aw.WinnerID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return service.ErrProposalNotEligible
		}

		if len(aw.LoserIDs) > 0 {
			if err := tx.Exec(`
				UPDATE proposals SET state = 'NOT_SELECTED' WHERE id IN ? AND state = 'SUBMITTED'
			`, aw.LoserIDs).Error; err != nil {
				return err
			}
		}

		if err := updateSolicitation(tx, aw.Solicitation); err != nil {
			return err
		}

		c := aw.Contract
		return tx.Exec(`
			INSERT INTO contracts (
				id, solicitation_id, winning_proposal_id, issuer_org_id,
				bidder_org_id, start_date, end_date, modality,
				penalty_percentage, special_conditions, internal_notes,
				ack_state, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.SolicitationID, c.WinningProposalID, c.IssuerOrgID,
			c.BidderOrgID, c.Terms.StartDate, c.Terms.EndDate, c.Terms.Modality,
			c.Terms.PenaltyPercentage, c.Terms.SpecialConditions,
			c.Terms.InternalNotes, c.AckState, c.CreatedAt,
		).Error
	})
}

type contractRow struct {
	ID                uuid.UUID
	SolicitationID    uuid.UUID
	WinningProposalID uuid.UUID
	IssuerOrgID       uuid.UUID
	BidderOrgID       uuid.UUID
	StartDate         time.Time
	EndDate           *time.Time
	Modality          string
	PenaltyPercentage float64
	SpecialConditions string
	InternalNotes     string
	AckState          string
	AcknowledgedAt    *time.Time
	CreatedAt         time.Time
}

const contractSelect = `
	SELECT
		id, solicitation_id, winning_proposal_id, issuer_org_id,
		bidder_org_id, start_date, end_date, modality, penalty_percentage,
		special_conditions, internal_notes, ack_state, acknowledged_at,
		created_at
	FROM contracts
`

func (r *Store) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	return r.scanContract(r.db.WithContext(ctx).Raw(contractSelect+` WHERE id = ?`, id))
}

func (r *Store) ContractBySolicitation(ctx context.Context, solicitationID uuid.UUID) (*model.Contract, error) {
	return r.scanContract(r.db.WithContext(ctx).Raw(contractSelect+` WHERE solicitation_id = ?`, solicitationID))
}

func (r *Store) UpdateContract(ctx context.Context, c *model.Contract) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE contracts SET ack_state = ?, acknowledged_at = ? WHERE id = ?
	`, c.AckState, c.AcknowledgedAt, c.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *Store) scanContract(query *gorm.DB) (*model.Contract, error) {
	var row contractRow
	if err := query.Scan(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &model.Contract{
		ID:                row.ID,
		SolicitationID:    row.SolicitationID,
		WinningProposalID: row.WinningProposalID,
		IssuerOrgID:       row.IssuerOrgID,
		BidderOrgID:       row.BidderOrgID,
		Terms: model.ContractTerms{
			StartDate:         row.StartDate,
			EndDate:           row.EndDate,
			Modality:          model.PaymentModality(row.Modality),
			PenaltyPercentage: row.PenaltyPercentage,
			SpecialConditions: row.SpecialConditions,
			InternalNotes:     row.InternalNotes,
		},
		AckState:       model.AcknowledgementState(row.AckState),
		AcknowledgedAt: row.AcknowledgedAt,
		CreatedAt:      row.CreatedAt,
	}, nil
}

func rowToSolicitation(row solicitationRow) (*model.Solicitation, error) {
	var requirements []model.RequirementClause
	if len(row.Requirements) > 0 {
		if err := json.Unmarshal(row.Requirements, &requirements); err != nil {
			return nil, fmt.Errorf("decode requirements: %w", err)
		}
	}
	return &model.Solicitation{
		ID:                  row.ID,
		IssuerOrgID:         row.IssuerOrgID,
		Title:               row.Title,
		Category:            row.Category,
		Description:         row.Description,
		BudgetMin:           row.BudgetMin,
		BudgetMax:           row.BudgetMax,
		ClosingAt:           row.ClosingAt,
		State:               model.SolicitationState(row.State),
		Requirements:        requirements,
		InspectionAt:        row.InspectionAt,
		InspectionLocation:  row.InspectionLocation,
		SpecialConditions:   row.SpecialConditions,
		CreatedAt:           row.CreatedAt,
		PublishedAt:         row.PublishedAt,
		EvaluationStartedAt: row.EvaluationStartedAt,
		ClosedOutAt:         row.ClosedOutAt,
	}, nil
}

func rowToProposal(row proposalRow) model.Proposal {
	proposal := model.Proposal{
		ID:             row.ID,
		SolicitationID: row.SolicitationID,
		BidderOrgID:    row.BidderOrgID,
		AnnualPrice:    row.AnnualPrice,
		Modality:       model.PaymentModality(row.Modality),
		Narrative:      row.Narrative,
		Acks: model.Acknowledgements{
			ReadRequirements:     row.AckReadReqs,
			SiteInspectionDone:   row.AckSiteInspection,
			PenaltyTermsAccepted: row.AckPenaltyTerms,
		},
		State:       model.ProposalState(row.State),
		SubmittedAt: row.SubmittedAt,
	}
	if row.Total != nil {
		proposal.Score = &model.ScoreBreakdown{
			ProposalID:         row.ID,
			PriceScore:         deref(row.PriceScore),
			ExperienceScore:    deref(row.ExperienceScore),
			TechnicalScore:     deref(row.TechnicalScore),
			DocumentationScore: deref(row.DocumentationScore),
			ReputationScore:    deref(row.ReputationScore),
			Total:              *row.Total,
			Rationale:          deref(row.Rationale),
			ScoredAt:           deref(row.ScoredAt),
		}
	}
	return proposal
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

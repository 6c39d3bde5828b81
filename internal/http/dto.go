package http

import (
	"time"

	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

type requirementClause struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Mandatory   bool   `json:"mandatory"`
	Curable     bool   `json:"curable"`
	AnswerKind  string `json:"answer_kind"`
}

type acknowledgements struct {
	ReadRequirements     bool `json:"read_requirements"`
	SiteInspectionDone   bool `json:"site_inspection_done"`
	PenaltyTermsAccepted bool `json:"penalty_terms_accepted"`
}

func (a acknowledgements) toModel() model.Acknowledgements {
	return model.Acknowledgements{
		ReadRequirements:     a.ReadRequirements,
		SiteInspectionDone:   a.SiteInspectionDone,
		PenaltyTermsAccepted: a.PenaltyTermsAccepted,
	}
}

type createSolicitationRequest struct {
	Title              string              `json:"title" binding:"required"`
	Category           string              `json:"category"`
	Description        string              `json:"description"`
	BudgetMin          *float64            `json:"budget_min"`
	BudgetMax          *float64            `json:"budget_max"`
	ClosingAt          string              `json:"closing_at" binding:"required"`
	Requirements       []requirementClause `json:"requirements"`
	InspectionAt       *string             `json:"inspection_at"`
	InspectionLocation string              `json:"inspection_location"`
	SpecialConditions  string              `json:"special_conditions"`
}

type updateSolicitationRequest struct {
	Title              *string             `json:"title"`
	Category           *string             `json:"category"`
	Description        *string             `json:"description"`
	BudgetMin          *float64            `json:"budget_min"`
	BudgetMax          *float64            `json:"budget_max"`
	ClosingAt          *string             `json:"closing_at"`
	Requirements       []requirementClause `json:"requirements"`
	InspectionAt       *string             `json:"inspection_at"`
	InspectionLocation *string             `json:"inspection_location"`
	SpecialConditions  *string             `json:"special_conditions"`
}

type submitProposalRequest struct {
	AnnualPrice     float64          `json:"annual_price" binding:"required"`
	PaymentModality string           `json:"payment_modality" binding:"required"`
	Narrative       string           `json:"narrative"`
	Acks            acknowledgements `json:"acknowledgements"`
}

type contractTermsRequest struct {
	StartDate         string  `json:"start_date" binding:"required"`
	EndDate           *string `json:"end_date"`
	PaymentModality   string  `json:"payment_modality" binding:"required"`
	PenaltyPercentage float64 `json:"penalty_percentage" binding:"required"`
	SpecialConditions string  `json:"special_conditions"`
	InternalNotes     string  `json:"internal_notes"`
}

type adjudicateRequest struct {
	WinningProposalID string               `json:"winning_proposal_id" binding:"required"`
	Terms             contractTermsRequest `json:"terms" binding:"required"`
}

type acceptContractRequest struct {
	Acks acknowledgements `json:"acknowledgements"`
}

type solicitationResponse struct {
	ID                  string              `json:"id"`
	IssuerOrgID         string              `json:"issuer_org_id"`
	Title               string              `json:"title"`
	Category            string              `json:"category"`
	Description         string              `json:"description"`
	BudgetMin           *float64            `json:"budget_min,omitempty"`
	BudgetMax           *float64            `json:"budget_max,omitempty"`
	ClosingAt           time.Time           `json:"closing_at"`
	State               string              `json:"state"`
	Requirements        []requirementClause `json:"requirements"`
	InspectionAt        *time.Time          `json:"inspection_at,omitempty"`
	InspectionLocation  string              `json:"inspection_location,omitempty"`
	SpecialConditions   string              `json:"special_conditions,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	PublishedAt         *time.Time          `json:"published_at,omitempty"`
	EvaluationStartedAt *time.Time          `json:"evaluation_started_at,omitempty"`
}

func toSolicitationResponse(sol *model.Solicitation) solicitationResponse {
	requirements := make([]requirementClause, 0, len(sol.Requirements))
	for _, r := range sol.Requirements {
		requirements = append(requirements, requirementClause{
			Title:       r.Title,
			Description: r.Description,
			Mandatory:   r.Mandatory,
			Curable:     r.Curable,
			AnswerKind:  string(r.AnswerKind),
		})
	}
	return solicitationResponse{
		ID:                  sol.ID.String(),
		IssuerOrgID:         sol.IssuerOrgID.String(),
		Title:               sol.Title,
		Category:            sol.Category,
		Description:         sol.Description,
		BudgetMin:           sol.BudgetMin,
		BudgetMax:           sol.BudgetMax,
		ClosingAt:           sol.ClosingAt,
		State:               string(sol.State),
		Requirements:        requirements,
		InspectionAt:        sol.InspectionAt,
		InspectionLocation:  sol.InspectionLocation,
		SpecialConditions:   sol.SpecialConditions,
		CreatedAt:           sol.CreatedAt,
		PublishedAt:         sol.PublishedAt,
		EvaluationStartedAt: sol.EvaluationStartedAt,
	}
}

type scoreResponse struct {
	PriceScore         float64   `json:"price_score"`
	ExperienceScore    float64   `json:"experience_score"`
	TechnicalScore     float64   `json:"technical_score"`
	DocumentationScore float64   `json:"documentation_score"`
	ReputationScore    float64   `json:"reputation_score"`
	Total              float64   `json:"total"`
	Rationale          string    `json:"rationale,omitempty"`
	ScoredAt           time.Time `json:"scored_at"`
}

type proposalResponse struct {
	ID             string         `json:"id"`
	SolicitationID string         `json:"solicitation_id"`
	BidderOrgID    string         `json:"bidder_org_id"`
	AnnualPrice    float64        `json:"annual_price"`
	Modality       string         `json:"payment_modality"`
	Narrative      string         `json:"narrative"`
	State          string         `json:"state"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	Rank           int            `json:"rank,omitempty"`
	Score          *scoreResponse `json:"score,omitempty"`
}

func toProposalResponse(p model.Proposal, rank int) proposalResponse {
	resp := proposalResponse{
		ID:             p.ID.String(),
		SolicitationID: p.SolicitationID.String(),
		BidderOrgID:    p.BidderOrgID.String(),
		AnnualPrice:    p.AnnualPrice,
		Modality:       string(p.Modality),
		Narrative:      p.Narrative,
		State:          string(p.State),
		SubmittedAt:    p.SubmittedAt,
		Rank:           rank,
	}
	if p.Score != nil {
		resp.Score = &scoreResponse{
			PriceScore:         p.Score.PriceScore,
			ExperienceScore:    p.Score.ExperienceScore,
			TechnicalScore:     p.Score.TechnicalScore,
			DocumentationScore: p.Score.DocumentationScore,
			ReputationScore:    p.Score.ReputationScore,
			Total:              p.Score.Total,
			Rationale:          p.Score.Rationale,
			ScoredAt:           p.Score.ScoredAt,
		}
	}
	return resp
}

type rankingResponse struct {
	SolicitationID string             `json:"solicitation_id"`
	Unscored       int                `json:"unscored"`
	Proposals      []proposalResponse `json:"proposals"`
}

func toRankingResponse(ranking *model.Ranking) rankingResponse {
	resp := rankingResponse{
		SolicitationID: ranking.SolicitationID.String(),
		Unscored:       ranking.Unscored,
		Proposals:      make([]proposalResponse, 0, len(ranking.Proposals)),
	}
	for _, ranked := range ranking.Proposals {
		resp.Proposals = append(resp.Proposals, toProposalResponse(ranked.Proposal, ranked.Rank))
	}
	return resp
}

type contractResponse struct {
	ID                string     `json:"id"`
	SolicitationID    string     `json:"solicitation_id"`
	WinningProposalID string     `json:"winning_proposal_id"`
	IssuerOrgID       string     `json:"issuer_org_id"`
	BidderOrgID       string     `json:"bidder_org_id"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	PaymentModality   string     `json:"payment_modality"`
	PenaltyPercentage float64    `json:"penalty_percentage"`
	SpecialConditions string     `json:"special_conditions,omitempty"`
	InternalNotes     string     `json:"internal_notes,omitempty"`
	AckState          string     `json:"ack_state"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toContractResponse(view *service.ContractView) contractResponse {
	c := view.Contract
	return contractResponse{
		ID:                c.ID.String(),
		SolicitationID:    c.SolicitationID.String(),
		WinningProposalID: c.WinningProposalID.String(),
		IssuerOrgID:       c.IssuerOrgID.String(),
		BidderOrgID:       c.BidderOrgID.String(),
		StartDate:         c.Terms.StartDate,
		EndDate:           c.Terms.EndDate,
		PaymentModality:   string(c.Terms.Modality),
		PenaltyPercentage: c.Terms.PenaltyPercentage,
		SpecialConditions: c.Terms.SpecialConditions,
		InternalNotes:     c.Terms.InternalNotes,
		AckState:          string(c.AckState),
		AcknowledgedAt:    c.AcknowledgedAt,
		Status:            string(view.Status),
		CreatedAt:         c.CreatedAt,
	}
}

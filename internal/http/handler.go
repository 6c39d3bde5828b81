package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeiden10/licitaph-sub000/internal/http/middleware"
	"github.com/yeiden10/licitaph-sub000/internal/model"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

type Handler struct {
	engine *service.Service
	log    zerolog.Logger
}

func NewHandler(engine *service.Service, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/solicitations", h.createSolicitation)
	protected.GET("/solicitations/:id", h.getSolicitation)
	protected.PATCH("/solicitations/:id", h.updateSolicitation)
	protected.POST("/solicitations/:id/publish", h.publishSolicitation)
	protected.POST("/solicitations/:id/cancel", h.cancelSolicitation)

	protected.POST("/solicitations/:id/proposals", h.submitProposal)
	protected.DELETE("/solicitations/:id/proposals/mine", h.withdrawProposal)
	protected.GET("/solicitations/:id/proposals", h.listProposals)
	protected.GET("/solicitations/:id/proposals/export", h.exportProposals)

	protected.POST("/solicitations/:id/adjudicate", h.adjudicate)

	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts/:id/document", h.contractDocument)
	protected.POST("/contracts/:id/accept", h.acceptContract)
}

func (h *Handler) createSolicitation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createSolicitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	closingAt, err := parseInstant(req.ClosingAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid closing_at", "error_kind": "validation"})
		return
	}
	inspectionAt, err := parseOptionalInstant(req.InspectionAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection_at", "error_kind": "validation"})
		return
	}
	requirements, err := parseRequirements(req.Requirements)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	sol, err := h.engine.CreateSolicitation(c.Request.Context(), principal, service.CreateSolicitationInput{
		Title:              req.Title,
		Category:           req.Category,
		Description:        req.Description,
		BudgetMin:          req.BudgetMin,
		BudgetMax:          req.BudgetMax,
		ClosingAt:          closingAt,
		Requirements:       requirements,
		InspectionAt:       inspectionAt,
		InspectionLocation: req.InspectionLocation,
		SpecialConditions:  req.SpecialConditions,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSolicitationResponse(sol))
}

func (h *Handler) getSolicitation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	sol, err := h.engine.GetSolicitation(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSolicitationResponse(sol))
}

func (h *Handler) updateSolicitation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req updateSolicitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	input := service.UpdateSolicitationInput{
		Title:              req.Title,
		Category:           req.Category,
		Description:        req.Description,
		BudgetMin:          req.BudgetMin,
		BudgetMax:          req.BudgetMax,
		InspectionLocation: req.InspectionLocation,
		SpecialConditions:  req.SpecialConditions,
	}
	if req.ClosingAt != nil {
		closingAt, err := parseInstant(*req.ClosingAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid closing_at", "error_kind": "validation"})
			return
		}
		input.ClosingAt = &closingAt
	}
	if req.InspectionAt != nil {
		inspectionAt, err := parseInstant(*req.InspectionAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection_at", "error_kind": "validation"})
			return
		}
		input.InspectionAt = &inspectionAt
	}
	if req.Requirements != nil {
		requirements, err := parseRequirements(req.Requirements)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
			return
		}
		input.Requirements = requirements
	}

	sol, err := h.engine.UpdateSolicitation(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSolicitationResponse(sol))
}

func (h *Handler) publishSolicitation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	sol, err := h.engine.Publish(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSolicitationResponse(sol))
}

func (h *Handler) cancelSolicitation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	sol, err := h.engine.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSolicitationResponse(sol))
}

func (h *Handler) submitProposal(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	proposal, err := h.engine.SubmitProposal(c.Request.Context(), principal, id, service.SubmitProposalInput{
		AnnualPrice: req.AnnualPrice,
		Modality:    model.PaymentModality(strings.ToUpper(req.PaymentModality)),
		Narrative:   req.Narrative,
		Acks:        req.Acks.toModel(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProposalResponse(*proposal, 0))
}

func (h *Handler) withdrawProposal(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	if err := h.engine.WithdrawProposal(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProposals(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	regenerate := c.Query("regenerate") == "true"

	ranking, err := h.engine.ListProposals(c.Request.Context(), principal, id, regenerate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRankingResponse(ranking))
}

func (h *Handler) exportProposals(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	result, err := h.engine.ExportRanking(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) adjudicate(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req adjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	winningID, err := uuid.Parse(strings.TrimSpace(req.WinningProposalID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid winning_proposal_id", "error_kind": "validation"})
		return
	}
	startDate, err := parseInstant(req.Terms.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date", "error_kind": "validation"})
		return
	}
	endDate, err := parseOptionalInstant(req.Terms.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date", "error_kind": "validation"})
		return
	}

	contract, err := h.engine.Adjudicate(c.Request.Context(), principal, id, service.AdjudicateInput{
		WinningProposalID: winningID,
		Terms: model.ContractTerms{
			StartDate:         startDate,
			EndDate:           endDate,
			Modality:          model.PaymentModality(strings.ToUpper(req.Terms.PaymentModality)),
			PenaltyPercentage: req.Terms.PenaltyPercentage,
			SpecialConditions: req.Terms.SpecialConditions,
			InternalNotes:     req.Terms.InternalNotes,
		},
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContractResponse(&service.ContractView{
		Contract: *contract,
		Status:   model.ContractStatusPendingAcceptance,
	}))
}

func (h *Handler) getContract(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	view, err := h.engine.GetContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(view))
}

func (h *Handler) contractDocument(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	result, err := h.engine.ContractDocument(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) acceptContract(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req acceptContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
		return
	}

	view, err := h.engine.AcceptContract(c.Request.Context(), principal, id, req.Acks.toModel())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(view))
}

func (h *Handler) principalAndID(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "error_kind": "validation"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}

// handleError maps the service error taxonomy onto HTTP. The gate error is
// role-sensitive: bidders who missed the deadline get a 403 distinct from
// validation failures, issuers reading too early get 423 Locked with the
// closing instant.
func (h *Handler) handleError(c *gin.Context, err error) {
	var gateErr *service.GateClosedError
	if errors.As(err, &gateErr) {
		body := gin.H{
			"error":              gateErr.Error(),
			"error_kind":         "gate_closed",
			"closing_at":         gateErr.ClosingAt,
			"solicitation_state": string(gateErr.State),
		}
		principal, _ := middleware.MustPrincipal(c)
		if principal.IsIssuer() {
			c.JSON(http.StatusLocked, body)
		} else {
			c.JSON(http.StatusForbidden, body)
		}
		return
	}

	var transitionErr *service.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":              transitionErr.Error(),
			"error_kind":         "invalid_state_transition",
			"solicitation_state": string(transitionErr.State),
		})
		return
	}

	var lockedErr *service.LockedError
	if errors.As(err, &lockedErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":              lockedErr.Error(),
			"error_kind":         "lifecycle_locked",
			"solicitation_state": string(lockedErr.State),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrAlreadyAwarded):
		c.JSON(http.StatusConflict, gin.H{
			"error":              err.Error(),
			"error_kind":         "already_awarded",
			"solicitation_state": string(model.SolicitationStateAwarded),
		})
	case errors.Is(err, service.ErrDuplicateProposal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_kind": "duplicate_proposal"})
	case errors.Is(err, service.ErrProposalNotEligible):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_kind": "proposal_not_eligible"})
	case errors.Is(err, service.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "error_kind": "busy"})
	case errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_kind": "invalid_state_transition"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "validation"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_kind": "permission_denied"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_kind": "not_found"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseRequirements(clauses []requirementClause) ([]model.RequirementClause, error) {
	requirements := make([]model.RequirementClause, 0, len(clauses))
	for _, clause := range clauses {
		kind := model.AnswerKind(strings.ToUpper(strings.TrimSpace(clause.AnswerKind)))
		switch kind {
		case "":
			kind = model.AnswerKindBoolean
		case model.AnswerKindBoolean, model.AnswerKindText, model.AnswerKindDocument:
		default:
			return nil, errors.New("unknown answer_kind " + clause.AnswerKind)
		}
		requirements = append(requirements, model.RequirementClause{
			Title:       clause.Title,
			Description: clause.Description,
			Mandatory:   clause.Mandatory,
			Curable:     clause.Curable,
			AnswerKind:  kind,
		})
	}
	return requirements, nil
}

func parseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty instant")
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unparseable instant")
}

func parseOptionalInstant(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseInstant(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

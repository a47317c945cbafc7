package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// FlowHandler handles balance flow requests.
type FlowHandler struct {
	flowService *services.FlowService
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(flowService *services.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// FlowCategoryRequest is one category split in a flow request.
type FlowCategoryRequest struct {
	CategoryID uint    `json:"category_id" binding:"required"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
}

// CreateFlowRequest represents the request payload for recording a flow.
type CreateFlowRequest struct {
	Type        string                `json:"type" binding:"required,flow_type"`
	Title       string                `json:"title" binding:"max=64"`
	CreateTime  int64                 `json:"create_time"`
	AccountID   *uint                 `json:"account_id"`
	ToAccountID *uint                 `json:"to_account_id"`
	Amount      float64               `json:"amount" binding:"omitempty,gt=0"`
	Rate        *float64              `json:"rate" binding:"omitempty,gt=0"`
	PayeeID     *uint                 `json:"payee_id"`
	Categories  []FlowCategoryRequest `json:"categories" binding:"dive"`
	Tags        []uint                `json:"tags"`
	Confirm     bool                  `json:"confirm"`
	Include     bool                  `json:"include"`
	Notes       string                `json:"notes" binding:"max=1024"`
}

// UpdateFlowRequest represents the request payload for updating a flow.
type UpdateFlowRequest struct {
	Title      *string               `json:"title" binding:"omitempty,max=64"`
	Notes      *string               `json:"notes" binding:"omitempty,max=1024"`
	CreateTime *int64                `json:"create_time"`
	PayeeID    *uint                 `json:"payee_id"`
	Categories []FlowCategoryRequest `json:"categories" binding:"omitempty,dive"`
	Tags       []uint                `json:"tags"`
}

// FlowQueryRequest represents the filters for listing flows.
type FlowQueryRequest struct {
	Type        *string `form:"type" binding:"omitempty,flow_type"`
	Title       string  `form:"title"`
	MinTime     *int64  `form:"min_time"`
	MaxTime     *int64  `form:"max_time"`
	AccountID   *uint   `form:"account_id"`
	PayeeIDs    []uint  `form:"payee_ids"`
	CategoryIDs []uint  `form:"category_ids"`
	TagIDs      []uint  `form:"tag_ids"`
	Confirm     *bool   `form:"confirm"`
}

func toCategoryInputs(reqs []FlowCategoryRequest) []services.FlowCategoryInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]services.FlowCategoryInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, services.FlowCategoryInput{CategoryID: r.CategoryID, Amount: r.Amount})
	}
	return inputs
}

// GetFlows lists the active book's flows
// @Summary     List flows
// @Description Get a paginated list of flows in the active book, newest first
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type         query string false "Flow type filter"
// @Param       title        query string false "Title substring filter"
// @Param       min_time     query int    false "Minimum create time (unix ms)"
// @Param       max_time     query int    false "Maximum create time (unix ms)"
// @Param       account_id   query int    false "Account filter (either side of a transfer)"
// @Param       payee_ids    query []int  false "Payee filter"
// @Param       category_ids query []int  false "Category filter"
// @Param       tag_ids      query []int  false "Tag filter"
// @Param       confirm      query bool   false "Confirmed filter"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BalanceFlow] "Paginated flows"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows [get]
func (h *FlowHandler) GetFlows(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filters FlowQueryRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.FlowQueryInput{
		Title:       filters.Title,
		MinTime:     filters.MinTime,
		MaxTime:     filters.MaxTime,
		AccountID:   filters.AccountID,
		PayeeIDs:    filters.PayeeIDs,
		CategoryIDs: filters.CategoryIDs,
		TagIDs:      filters.TagIDs,
		Confirm:     filters.Confirm,
	}
	if filters.Type != nil {
		flowType := models.FlowType(*filters.Type)
		input.Type = &flowType
	}

	result, err := h.flowService.Query(sess, input, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFlowByID gets one flow
// @Summary     Get flow by ID
// @Description Get a specific flow with its category and tag relations
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Flow ID"
// @Success     200 {object} models.BalanceFlow "Flow details"
// @Failure     400 {object} ErrorResponse "Invalid flow ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Flow not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows/{id} [get]
func (h *FlowHandler) GetFlowByID(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flowID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	flow, err := h.flowService.Get(sess, flowID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// CreateFlow records a flow
// @Summary     Record a flow
// @Description Record an expense, income or transfer in the active book
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFlowRequest true "Flow details"
// @Success     201 {object} models.BalanceFlow "Flow recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows [post]
func (h *FlowHandler) CreateFlow(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	flow, err := h.flowService.Add(sess, services.FlowAddInput{
		Type:        models.FlowType(req.Type),
		Title:       req.Title,
		CreateTime:  req.CreateTime,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Amount:      req.Amount,
		Rate:        req.Rate,
		PayeeID:     req.PayeeID,
		Categories:  toCategoryInputs(req.Categories),
		Tags:        req.Tags,
		Confirm:     req.Confirm,
		Include:     req.Include,
		Notes:       req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"flow": flow})
}

// UpdateFlow updates a flow
// @Summary     Update a flow
// @Description Update a flow's descriptive fields or replace its category splits and tags
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Flow ID"
// @Param       request body UpdateFlowRequest true "Updated flow details"
// @Success     200 {object} models.BalanceFlow "Updated flow"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Flow not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows/{id} [put]
func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flowID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	flow, err := h.flowService.Update(sess, flowID, services.FlowUpdateInput{
		Title:      req.Title,
		Notes:      req.Notes,
		CreateTime: req.CreateTime,
		PayeeID:    req.PayeeID,
		Categories: toCategoryInputs(req.Categories),
		Tags:       req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// DeleteFlow deletes a flow
// @Summary     Delete a flow
// @Description Delete a flow, rolling back its balance effect when confirmed
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Flow ID"
// @Success     200 {object} map[string]string "Flow deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Flow not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows/{id} [delete]
func (h *FlowHandler) DeleteFlow(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flowID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.flowService.Remove(sess, flowID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "flow deleted"})
}

// ConfirmFlow confirms a flow
// @Summary     Confirm a flow
// @Description Confirm an unconfirmed flow, applying its balance effect
// @Tags        flows
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Flow ID"
// @Success     200 {object} models.BalanceFlow "Confirmed flow"
// @Failure     400 {object} ErrorResponse "Already confirmed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Flow not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balance-flows/{id}/confirm [post]
func (h *FlowHandler) ConfirmFlow(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flowID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	flow, err := h.flowService.Confirm(sess, flowID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// PayeeHandler handles payee-related requests.
type PayeeHandler struct {
	payeeService *services.PayeeService
}

// NewPayeeHandler creates a new PayeeHandler.
func NewPayeeHandler(payeeService *services.PayeeService) *PayeeHandler {
	return &PayeeHandler{payeeService: payeeService}
}

// CreatePayeeRequest represents the request payload for creating a payee.
type CreatePayeeRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=64"`
	Notes      string `json:"notes" binding:"max=1024"`
	CanExpense bool   `json:"can_expense"`
	CanIncome  bool   `json:"can_income"`
	Sort       int    `json:"sort"`
}

// UpdatePayeeRequest represents the request payload for updating a payee.
type UpdatePayeeRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=64"`
	Notes      *string `json:"notes" binding:"omitempty,max=1024"`
	Enable     *bool   `json:"enable"`
	CanExpense *bool   `json:"can_expense"`
	CanIncome  *bool   `json:"can_income"`
	Sort       *int    `json:"sort"`
}

// PayeeQueryRequest represents the filters for listing payees.
type PayeeQueryRequest struct {
	Enable *bool  `form:"enable"`
	Name   string `form:"name"`
}

// GetPayees lists the active book's payees
// @Summary     List payees
// @Description Get a paginated list of payees in the active book
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       enable    query bool   false "Enabled filter"
// @Param       name      query string false "Name substring filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Payee] "Paginated payees"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees [get]
func (h *PayeeHandler) GetPayees(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filters PayeeQueryRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.payeeService.Query(sess, services.PayeeQueryInput{
		Enable: filters.Enable,
		Name:   filters.Name,
	}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreatePayee creates a payee
// @Summary     Create a payee
// @Description Create a new payee in the active book
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePayeeRequest true "Payee details"
// @Success     201 {object} models.Payee "Payee created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees [post]
func (h *PayeeHandler) CreatePayee(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payee, err := h.payeeService.Add(sess, services.PayeeAddInput{
		Name:       req.Name,
		Notes:      req.Notes,
		CanExpense: req.CanExpense,
		CanIncome:  req.CanIncome,
		Sort:       req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payee": payee})
}

// UpdatePayee updates a payee
// @Summary     Update a payee
// @Description Update a payee's mutable fields
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payee ID"
// @Param       request body UpdatePayeeRequest true "Updated payee details"
// @Success     200 {object} models.Payee "Updated payee"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees/{id} [put]
func (h *PayeeHandler) UpdatePayee(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payeeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payee, err := h.payeeService.Update(sess, payeeID, services.PayeeUpdateInput{
		Name:       req.Name,
		Notes:      req.Notes,
		Enable:     req.Enable,
		CanExpense: req.CanExpense,
		CanIncome:  req.CanIncome,
		Sort:       req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payee": payee})
}

// DeletePayee deletes a payee
// @Summary     Delete a payee
// @Description Delete a payee. Forbidden while flows still reference it.
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payee ID"
// @Success     200 {object} map[string]string "Payee deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees/{id} [delete]
func (h *PayeeHandler) DeletePayee(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payeeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.payeeService.Remove(sess, payeeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "payee deleted"})
}

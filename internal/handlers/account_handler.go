package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the request payload for creating an account.
type CreateAccountRequest struct {
	Name            string   `json:"name" binding:"required,min=1,max=64"`
	Type            string   `json:"type" binding:"required,account_type"`
	No              string   `json:"no" binding:"max=32"`
	CurrencyCode    string   `json:"currency_code" binding:"required,iso4217"`
	InitialBalance  float64  `json:"initial_balance"`
	Notes           string   `json:"notes" binding:"max=1024"`
	Include         bool     `json:"include"`
	CanExpense      bool     `json:"can_expense"`
	CanIncome       bool     `json:"can_income"`
	CanTransferFrom bool     `json:"can_transfer_from"`
	CanTransferTo   bool     `json:"can_transfer_to"`
	Sort            int      `json:"sort"`
	CreditLimit     *float64 `json:"credit_limit" binding:"omitempty,gte=0"`
	BillDay         *int     `json:"bill_day" binding:"omitempty,min=1,max=31"`
	Apr             *float64 `json:"apr" binding:"omitempty,gte=0"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name            *string  `json:"name" binding:"omitempty,min=1,max=64"`
	No              *string  `json:"no" binding:"omitempty,max=32"`
	Notes           *string  `json:"notes" binding:"omitempty,max=1024"`
	Enable          *bool    `json:"enable"`
	Include         *bool    `json:"include"`
	CanExpense      *bool    `json:"can_expense"`
	CanIncome       *bool    `json:"can_income"`
	CanTransferFrom *bool    `json:"can_transfer_from"`
	CanTransferTo   *bool    `json:"can_transfer_to"`
	Sort            *int     `json:"sort"`
	CreditLimit     *float64 `json:"credit_limit" binding:"omitempty,gte=0"`
	BillDay         *int     `json:"bill_day" binding:"omitempty,min=1,max=31"`
	Apr             *float64 `json:"apr" binding:"omitempty,gte=0"`
}

// AdjustBalanceRequest represents the request payload for a balance adjustment.
type AdjustBalanceRequest struct {
	Balance float64 `json:"balance" binding:"required"`
	Title   string  `json:"title" binding:"max=64"`
	Notes   string  `json:"notes" binding:"max=1024"`
}

// AccountQueryRequest represents the filters for listing accounts.
type AccountQueryRequest struct {
	Type   *string `form:"type" binding:"omitempty,account_type"`
	Enable *bool   `form:"enable"`
	Name   string  `form:"name"`
}

// GetAccounts lists the active book's accounts
// @Summary     List accounts
// @Description Get a paginated list of accounts in the active book
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Account type filter"
// @Param       enable    query bool   false "Enabled filter"
// @Param       name      query string false "Name substring filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filters AccountQueryRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.AccountQueryInput{Enable: filters.Enable, Name: filters.Name}
	if filters.Type != nil {
		accountType := models.AccountType(*filters.Type)
		input.Type = &accountType
	}

	result, err := h.accountService.Query(sess, input, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountByID gets one account
// @Summary     Get account by ID
// @Description Get a specific account in the active book
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetInBook(sess, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CreateAccount creates an account
// @Summary     Create an account
// @Description Create a new account in the active book
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.Add(sess, services.AccountAddInput{
		Name:            req.Name,
		Type:            models.AccountType(req.Type),
		No:              req.No,
		CurrencyCode:    req.CurrencyCode,
		InitialBalance:  req.InitialBalance,
		Notes:           req.Notes,
		Include:         req.Include,
		CanExpense:      req.CanExpense,
		CanIncome:       req.CanIncome,
		CanTransferFrom: req.CanTransferFrom,
		CanTransferTo:   req.CanTransferTo,
		Sort:            req.Sort,
		CreditLimit:     req.CreditLimit,
		BillDay:         req.BillDay,
		Apr:             req.Apr,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// UpdateAccount updates an account
// @Summary     Update an account
// @Description Update an account's mutable fields
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Param       request body UpdateAccountRequest true "Updated account details"
// @Success     200 {object} models.Account "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.Update(sess, accountID, services.AccountUpdateInput{
		Name:            req.Name,
		No:              req.No,
		Notes:           req.Notes,
		Enable:          req.Enable,
		Include:         req.Include,
		CanExpense:      req.CanExpense,
		CanIncome:       req.CanIncome,
		CanTransferFrom: req.CanTransferFrom,
		CanTransferTo:   req.CanTransferTo,
		Sort:            req.Sort,
		CreditLimit:     req.CreditLimit,
		BillDay:         req.BillDay,
		Apr:             req.Apr,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount deletes an account
// @Summary     Delete an account
// @Description Delete an account. Forbidden while flows still reference it.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Success     200 {object} map[string]string "Account deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.Remove(sess, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// AdjustBalance adjusts an account's balance
// @Summary     Adjust account balance
// @Description Set an account's balance, recording the difference as an adjust flow
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Param       request body AdjustBalanceRequest true "New balance"
// @Success     200 {object} models.BalanceFlow "Adjust flow created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/adjust [post]
func (h *AccountHandler) AdjustBalance(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	flow, err := h.accountService.Adjust(sess, accountID, req.Balance, req.Title, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

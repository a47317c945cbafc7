package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// BookHandler handles book-related requests.
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBookRequest represents the request payload for creating a book.
// Either a name or a template is required.
type CreateBookRequest struct {
	Name                string `json:"name" binding:"max=64"`
	Notes               string `json:"notes" binding:"max=1024"`
	DefaultCurrencyCode string `json:"default_currency_code" binding:"omitempty,iso4217"`
	TemplateID          *int   `json:"template_id" binding:"omitempty,min=1"`
	Sort                int    `json:"sort"`
}

// UpdateBookRequest represents the request payload for updating a book.
type UpdateBookRequest struct {
	Name                         *string `json:"name" binding:"omitempty,min=1,max=64"`
	Notes                        *string `json:"notes" binding:"omitempty,max=1024"`
	Enable                       *bool   `json:"enable"`
	DefaultCurrencyCode          *string `json:"default_currency_code" binding:"omitempty,iso4217"`
	DefaultExpenseAccountID      *uint   `json:"default_expense_account_id"`
	DefaultIncomeAccountID       *uint   `json:"default_income_account_id"`
	DefaultTransferFromAccountID *uint   `json:"default_transfer_from_account_id"`
	DefaultTransferToAccountID   *uint   `json:"default_transfer_to_account_id"`
	Sort                         *int    `json:"sort"`
}

// GetBooks lists the active group's books
// @Summary     List books
// @Description Get a paginated list of books in the active group
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Book] "Paginated books"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /books [get]
func (h *BookHandler) GetBooks(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.bookService.Query(sess, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBookByID gets one book
// @Summary     Get book by ID
// @Description Get a specific book in the active group
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Book ID"
// @Success     200 {object} models.Book "Book details"
// @Failure     400 {object} ErrorResponse "Invalid book ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Book not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /books/{id} [get]
func (h *BookHandler) GetBookByID(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bookID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	book, err := h.bookService.GetInGroup(sess, bookID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// CreateBook creates a book
// @Summary     Create a book
// @Description Create a new book in the active group, optionally seeded from a template
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBookRequest true "Book details"
// @Success     201 {object} models.Book "Book created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	book, err := h.bookService.Add(sess, services.BookAddInput{
		Name:                req.Name,
		Notes:               req.Notes,
		DefaultCurrencyCode: req.DefaultCurrencyCode,
		TemplateID:          req.TemplateID,
		Sort:                req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// UpdateBook updates a book
// @Summary     Update a book
// @Description Update a book's fields and default accounts
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Book ID"
// @Param       request body UpdateBookRequest true "Updated book details"
// @Success     200 {object} models.Book "Updated book"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Book not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bookID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	book, err := h.bookService.Update(sess, bookID, services.BookUpdateInput{
		Name:                         req.Name,
		Notes:                        req.Notes,
		Enable:                       req.Enable,
		DefaultCurrencyCode:          req.DefaultCurrencyCode,
		DefaultExpenseAccountID:      req.DefaultExpenseAccountID,
		DefaultIncomeAccountID:       req.DefaultIncomeAccountID,
		DefaultTransferFromAccountID: req.DefaultTransferFromAccountID,
		DefaultTransferToAccountID:   req.DefaultTransferToAccountID,
		Sort:                         req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// DeleteBook deletes a book
// @Summary     Delete a book
// @Description Delete a book and its categories, tags, payees and accounts. Forbidden while it has flows or is the group default.
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Book ID"
// @Success     200 {object} map[string]string "Book deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Book not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bookID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.bookService.Remove(sess, bookID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

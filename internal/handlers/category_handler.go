package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Type     string `json:"type" binding:"required,category_type"`
	ParentID *uint  `json:"parent_id"`
	Notes    string `json:"notes" binding:"max=1024"`
	Sort     int    `json:"sort"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
type UpdateCategoryRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=64"`
	ParentID *uint   `json:"parent_id"`
	Notes    *string `json:"notes" binding:"omitempty,max=1024"`
	Enable   *bool   `json:"enable"`
	Sort     *int    `json:"sort"`
}

// CategoryQueryRequest represents the filters for listing categories.
type CategoryQueryRequest struct {
	Type   *string `form:"type" binding:"omitempty,category_type"`
	Enable *bool   `form:"enable"`
	Name   string  `form:"name"`
}

// GetCategories lists the active book's categories
// @Summary     List categories
// @Description Get a paginated list of categories in the active book
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Category type filter"
// @Param       enable    query bool   false "Enabled filter"
// @Param       name      query string false "Name substring filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filters CategoryQueryRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.CategoryQueryInput{Enable: filters.Enable, Name: filters.Name}
	if filters.Type != nil {
		categoryType := models.CategoryType(*filters.Type)
		input.Type = &categoryType
	}

	result, err := h.categoryService.Query(sess, input, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateCategory creates a category
// @Summary     Create a category
// @Description Create a new category in the active book
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.Add(sess, services.CategoryAddInput{
		Name:     req.Name,
		Type:     models.CategoryType(req.Type),
		ParentID: req.ParentID,
		Notes:    req.Notes,
		Sort:     req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory updates a category
// @Summary     Update a category
// @Description Update a category's mutable fields. The type is fixed at creation.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.Update(sess, categoryID, services.CategoryUpdateInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Notes:    req.Notes,
		Enable:   req.Enable,
		Sort:     req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory deletes a category
// @Summary     Delete a category
// @Description Delete a category. Forbidden while it has children or flows reference it.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.Remove(sess, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

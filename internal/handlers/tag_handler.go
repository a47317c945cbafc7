package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// TagHandler handles tag-related requests.
type TagHandler struct {
	tagService *services.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// CreateTagRequest represents the request payload for creating a tag.
type CreateTagRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	ParentID    *uint  `json:"parent_id"`
	Notes       string `json:"notes" binding:"max=1024"`
	CanExpense  bool   `json:"can_expense"`
	CanIncome   bool   `json:"can_income"`
	CanTransfer bool   `json:"can_transfer"`
	Sort        int    `json:"sort"`
}

// UpdateTagRequest represents the request payload for updating a tag.
type UpdateTagRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=64"`
	ParentID    *uint   `json:"parent_id"`
	Notes       *string `json:"notes" binding:"omitempty,max=1024"`
	Enable      *bool   `json:"enable"`
	CanExpense  *bool   `json:"can_expense"`
	CanIncome   *bool   `json:"can_income"`
	CanTransfer *bool   `json:"can_transfer"`
	Sort        *int    `json:"sort"`
}

// TagQueryRequest represents the filters for listing tags.
type TagQueryRequest struct {
	Enable *bool  `form:"enable"`
	Name   string `form:"name"`
}

// GetTags lists the active book's tags
// @Summary     List tags
// @Description Get a paginated list of tags in the active book
// @Tags        tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       enable    query bool   false "Enabled filter"
// @Param       name      query string false "Name substring filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Tag] "Paginated tags"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tags [get]
func (h *TagHandler) GetTags(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filters TagQueryRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tagService.Query(sess, services.TagQueryInput{
		Enable: filters.Enable,
		Name:   filters.Name,
	}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateTag creates a tag
// @Summary     Create a tag
// @Description Create a new tag in the active book
// @Tags        tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTagRequest true "Tag details"
// @Success     201 {object} models.Tag "Tag created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tag, err := h.tagService.Add(sess, services.TagAddInput{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Notes:       req.Notes,
		CanExpense:  req.CanExpense,
		CanIncome:   req.CanIncome,
		CanTransfer: req.CanTransfer,
		Sort:        req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

// UpdateTag updates a tag
// @Summary     Update a tag
// @Description Update a tag's mutable fields
// @Tags        tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Tag ID"
// @Param       request body UpdateTagRequest true "Updated tag details"
// @Success     200 {object} models.Tag "Updated tag"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Tag not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tags/{id} [put]
func (h *TagHandler) UpdateTag(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tagID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tag, err := h.tagService.Update(sess, tagID, services.TagUpdateInput{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Notes:       req.Notes,
		Enable:      req.Enable,
		CanExpense:  req.CanExpense,
		CanIncome:   req.CanIncome,
		CanTransfer: req.CanTransfer,
		Sort:        req.Sort,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// DeleteTag deletes a tag
// @Summary     Delete a tag
// @Description Delete a tag. Forbidden while it has children or flows reference it.
// @Tags        tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Tag ID"
// @Success     200 {object} map[string]string "Tag deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Tag not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tagID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tagService.Remove(sess, tagID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
}

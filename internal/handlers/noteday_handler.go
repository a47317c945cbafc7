package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// NoteDayHandler handles reminder requests.
type NoteDayHandler struct {
	noteDayService *services.NoteDayService
}

// NewNoteDayHandler creates a new NoteDayHandler.
func NewNoteDayHandler(noteDayService *services.NoteDayService) *NoteDayHandler {
	return &NoteDayHandler{noteDayService: noteDayService}
}

// NoteDayRequest represents the request payload for creating or updating a
// note day.
type NoteDayRequest struct {
	Title      string `json:"title" binding:"required,min=1,max=16"`
	Notes      string `json:"notes" binding:"max=1024"`
	StartDate  int64  `json:"start_date" binding:"required"`
	EndDate    int64  `json:"end_date"`
	RepeatType int    `json:"repeat_type" binding:"repeat_type"`
	Interval   int    `json:"interval" binding:"omitempty,min=1"`
	TotalCount int    `json:"total_count" binding:"omitempty,min=0"`
}

func (r NoteDayRequest) toInput() services.NoteDayInput {
	return services.NoteDayInput{
		Title:      r.Title,
		Notes:      r.Notes,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		RepeatType: models.RepeatType(r.RepeatType),
		Interval:   r.Interval,
		TotalCount: r.TotalCount,
	}
}

// GetNoteDays lists the caller's note days
// @Summary     List note days
// @Description Get a paginated list of the caller's reminders ordered by next occurrence
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.NoteDay] "Paginated note days"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days [get]
func (h *NoteDayHandler) GetNoteDays(c *gin.Context) {
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

	result, err := h.noteDayService.Query(sess, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetNoteDayByID gets one note day
// @Summary     Get note day by ID
// @Description Get a specific reminder of the caller
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Note day ID"
// @Success     200 {object} models.NoteDay "Note day details"
// @Failure     400 {object} ErrorResponse "Invalid note day ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Note day not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days/{id} [get]
func (h *NoteDayHandler) GetNoteDayByID(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDayID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDay, err := h.noteDayService.Get(sess, noteDayID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note_day": noteDay})
}

// CreateNoteDay creates a note day
// @Summary     Create a note day
// @Description Create a new reminder for the caller
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body NoteDayRequest true "Note day details"
// @Success     201 {object} models.NoteDay "Note day created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days [post]
func (h *NoteDayHandler) CreateNoteDay(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NoteDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	noteDay, err := h.noteDayService.Add(sess, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"note_day": noteDay})
}

// UpdateNoteDay updates a note day
// @Summary     Update a note day
// @Description Replace a reminder's schedule; the next occurrence resets to the new start date
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Note day ID"
// @Param       request body NoteDayRequest true "Updated note day details"
// @Success     200 {object} models.NoteDay "Updated note day"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Note day not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days/{id} [put]
func (h *NoteDayHandler) UpdateNoteDay(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDayID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NoteDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	noteDay, err := h.noteDayService.Update(sess, noteDayID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note_day": noteDay})
}

// DeleteNoteDay deletes a note day
// @Summary     Delete a note day
// @Description Delete a reminder of the caller
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Note day ID"
// @Success     200 {object} map[string]string "Note day deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Note day not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days/{id} [delete]
func (h *NoteDayHandler) DeleteNoteDay(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDayID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.noteDayService.Remove(sess, noteDayID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "note day deleted"})
}

// RunNoteDay advances a note day
// @Summary     Run a note day
// @Description Mark the current occurrence as done and advance to the next one
// @Tags        note-days
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Note day ID"
// @Success     200 {object} models.NoteDay "Advanced note day"
// @Failure     400 {object} ErrorResponse "Note day finished or does not repeat"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Note day not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /note-days/{id}/run [post]
func (h *NoteDayHandler) RunNoteDay(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDayID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	noteDay, err := h.noteDayService.Run(sess, noteDayID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note_day": noteDay})
}

package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// NoteDayService handles user-scoped reminders.
type NoteDayService struct {
	db *gorm.DB
}

// NewNoteDayService creates a new NoteDayService.
func NewNoteDayService(db *gorm.DB) *NoteDayService {
	return &NoteDayService{db: db}
}

// NoteDayInput holds the fields for creating or updating a note day.
type NoteDayInput struct {
	Title      string
	Notes      string
	StartDate  int64
	EndDate    int64
	RepeatType models.RepeatType
	Interval   int
	TotalCount int
}

func (s *NoteDayService) get(sess *session.Session, noteDayID uint) (*models.NoteDay, error) {
	var noteDay models.NoteDay
	if err := s.db.First(&noteDay, noteDayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if noteDay.UserID != sess.User.ID {
		return nil, apperrors.ErrItemNotFound
	}
	return &noteDay, nil
}

func validateRepeat(input NoteDayInput) error {
	if !input.RepeatType.Valid() {
		return apperrors.ErrInvalidInput
	}
	if input.RepeatType != models.RepeatNone && input.Interval < 1 {
		return apperrors.ErrInvalidInput
	}
	return nil
}

// advance returns the date one repeat step after from.
func advance(from int64, repeatType models.RepeatType, interval int) int64 {
	t := time.UnixMilli(from).UTC()
	switch repeatType {
	case models.RepeatDaily:
		t = t.AddDate(0, 0, interval)
	case models.RepeatMonthly:
		t = t.AddDate(0, interval, 0)
	case models.RepeatYearly:
		t = t.AddDate(interval, 0, 0)
	}
	return t.UnixMilli()
}

// Add creates a note day for the caller. The next occurrence starts at the
// start date.
func (s *NoteDayService) Add(sess *session.Session, input NoteDayInput) (*models.NoteDay, error) {
	if err := validateRepeat(input); err != nil {
		return nil, err
	}

	noteDay := &models.NoteDay{
		UserID:     sess.User.ID,
		Title:      input.Title,
		Notes:      input.Notes,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		NextDate:   input.StartDate,
		RepeatType: input.RepeatType,
		Interval:   input.Interval,
		TotalCount: input.TotalCount,
		RunCount:   0,
	}
	if err := s.db.Create(noteDay).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return noteDay, nil
}

// Query lists the caller's note days ordered by next occurrence.
func (s *NoteDayService) Query(sess *session.Session, page pagination.PageRequest) (*pagination.PageResponse[models.NoteDay], error) {
	page.Defaults()

	query := s.db.Model(&models.NoteDay{}).Where("user_id = ?", sess.User.ID)

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var noteDays []models.NoteDay
	if err := query.Scopes(pagination.Paginate(page)).Order("next_date, id").Find(&noteDays).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(noteDays, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Get loads one of the caller's note days.
func (s *NoteDayService) Get(sess *session.Session, noteDayID uint) (*models.NoteDay, error) {
	return s.get(sess, noteDayID)
}

// Update replaces a note day's schedule. The run count is kept; the next
// occurrence resets to the new start date.
func (s *NoteDayService) Update(sess *session.Session, noteDayID uint, input NoteDayInput) (*models.NoteDay, error) {
	if err := validateRepeat(input); err != nil {
		return nil, err
	}

	noteDay, err := s.get(sess, noteDayID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       input.Title,
		"notes":       input.Notes,
		"start_date":  input.StartDate,
		"end_date":    input.EndDate,
		"next_date":   input.StartDate,
		"repeat_type": input.RepeatType,
		"c_interval":  input.Interval,
		"total_count": input.TotalCount,
	}
	if err := s.db.Model(noteDay).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.First(noteDay, noteDay.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return noteDay, nil
}

// Remove deletes a note day.
func (s *NoteDayService) Remove(sess *session.Session, noteDayID uint) error {
	noteDay, err := s.get(sess, noteDayID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(noteDay).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Run marks the current occurrence as done and advances the next date by one
// repeat step. Fails when the note day does not repeat or its run budget is
// used up.
func (s *NoteDayService) Run(sess *session.Session, noteDayID uint) (*models.NoteDay, error) {
	noteDay, err := s.get(sess, noteDayID)
	if err != nil {
		return nil, err
	}
	if noteDay.RepeatType == models.RepeatNone {
		return nil, apperrors.ErrNoteDayFinished
	}
	if noteDay.TotalCount > 0 && noteDay.RunCount >= noteDay.TotalCount {
		return nil, apperrors.ErrNoteDayFinished
	}

	next := advance(noteDay.NextDate, noteDay.RepeatType, noteDay.Interval)
	if noteDay.EndDate > 0 && next > noteDay.EndDate {
		return nil, apperrors.ErrNoteDayFinished
	}

	if err := s.db.Model(noteDay).Updates(map[string]interface{}{
		"next_date": next,
		"run_count": noteDay.RunCount + 1,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	noteDay.NextDate = next
	noteDay.RunCount++
	return noteDay, nil
}

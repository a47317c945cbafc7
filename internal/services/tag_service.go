package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// TagService handles tag business logic within the active book.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a new TagService.
func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// TagAddInput holds the fields for creating a tag.
type TagAddInput struct {
	Name        string
	ParentID    *uint
	Notes       string
	CanExpense  bool
	CanIncome   bool
	CanTransfer bool
	Sort        int
}

// TagUpdateInput holds the fields for updating a tag. Nil fields are left
// unchanged.
type TagUpdateInput struct {
	Name        *string
	ParentID    *uint
	Notes       *string
	Enable      *bool
	CanExpense  *bool
	CanIncome   *bool
	CanTransfer *bool
	Sort        *int
}

// TagQueryInput holds the optional filters for listing tags.
type TagQueryInput struct {
	Enable *bool
	Name   string
}

// GetInBook loads a tag and verifies it belongs to the active book.
func (s *TagService) GetInBook(sess *session.Session, tagID uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if tag.BookID != sess.Book.ID {
		return nil, apperrors.ErrItemNotFound
	}
	return &tag, nil
}

// Add creates a tag in the active book.
func (s *TagService) Add(sess *session.Session, input TagAddInput) (*models.Tag, error) {
	if input.ParentID != nil {
		if _, err := s.GetInBook(sess, *input.ParentID); err != nil {
			return nil, err
		}
	}

	tag := &models.Tag{
		BookID:      sess.Book.ID,
		Name:        input.Name,
		ParentID:    input.ParentID,
		Enable:      true,
		CanExpense:  input.CanExpense,
		CanIncome:   input.CanIncome,
		CanTransfer: input.CanTransfer,
		Notes:       input.Notes,
		Sort:        input.Sort,
	}
	if err := s.db.Create(tag).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tag, nil
}

// Query lists the active book's tags with optional filters.
func (s *TagService) Query(sess *session.Session, input TagQueryInput, page pagination.PageRequest) (*pagination.PageResponse[models.Tag], error) {
	page.Defaults()

	query := s.db.Model(&models.Tag{}).Where("book_id = ?", sess.Book.ID)
	if input.Enable != nil {
		query = query.Where("enable = ?", *input.Enable)
	}
	if input.Name != "" {
		query = query.Where("name LIKE ?", "%"+input.Name+"%")
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tags []models.Tag
	if err := query.Scopes(pagination.Paginate(page)).Order("sort, id").Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(tags, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update changes a tag's mutable fields.
func (s *TagService) Update(sess *session.Session, tagID uint, input TagUpdateInput) (*models.Tag, error) {
	tag, err := s.GetInBook(sess, tagID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.ParentID != nil {
		if *input.ParentID == tag.ID {
			return nil, apperrors.ErrSelfParent
		}
		if _, err := s.GetInBook(sess, *input.ParentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *input.ParentID
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Enable != nil {
		updates["enable"] = *input.Enable
	}
	if input.CanExpense != nil {
		updates["can_expense"] = *input.CanExpense
	}
	if input.CanIncome != nil {
		updates["can_income"] = *input.CanIncome
	}
	if input.CanTransfer != nil {
		updates["can_transfer"] = *input.CanTransfer
	}
	if input.Sort != nil {
		updates["sort"] = *input.Sort
	}
	if len(updates) == 0 {
		return tag, nil
	}

	if err := s.db.Model(tag).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.First(tag, tag.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tag, nil
}

// Remove deletes a tag. Forbidden while it has children or any flow still
// references it.
func (s *TagService) Remove(sess *session.Session, tagID uint) error {
	tag, err := s.GetInBook(sess, tagID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Tag{}).Where("parent_id = ?", tag.ID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrEntityHasChildren
	}

	var relationCount int64
	if err := s.db.Model(&models.TagRelation{}).Where("tag_id = ?", tag.ID).Count(&relationCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if relationCount > 0 {
		return apperrors.ErrEntityInUse
	}

	if err := s.db.Delete(tag).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

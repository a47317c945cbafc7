package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// CategoryService handles category business logic within the active book.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoryAddInput holds the fields for creating a category.
type CategoryAddInput struct {
	Name     string
	Type     models.CategoryType
	ParentID *uint
	Notes    string
	Sort     int
}

// CategoryUpdateInput holds the fields for updating a category. Nil fields
// are left unchanged.
type CategoryUpdateInput struct {
	Name     *string
	ParentID *uint
	Notes    *string
	Enable   *bool
	Sort     *int
}

// CategoryQueryInput holds the optional filters for listing categories.
type CategoryQueryInput struct {
	Type   *models.CategoryType
	Enable *bool
	Name   string
}

// GetInBook loads a category and verifies it belongs to the active book.
func (s *CategoryService) GetInBook(sess *session.Session, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.BookID != sess.Book.ID {
		return nil, apperrors.ErrItemNotFound
	}
	return &category, nil
}

// Add creates a category in the active book. A parent, when given, must be a
// category of the same type in the same book.
func (s *CategoryService) Add(sess *session.Session, input CategoryAddInput) (*models.Category, error) {
	if input.ParentID != nil {
		parent, err := s.GetInBook(sess, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != input.Type {
			return nil, apperrors.ErrInvalidInput
		}
	}

	category := &models.Category{
		BookID:   sess.Book.ID,
		Name:     input.Name,
		Type:     input.Type,
		ParentID: input.ParentID,
		Enable:   true,
		Notes:    input.Notes,
		Sort:     input.Sort,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// Query lists the active book's categories with optional filters.
func (s *CategoryService) Query(sess *session.Session, input CategoryQueryInput, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	query := s.db.Model(&models.Category{}).Where("book_id = ?", sess.Book.ID)
	if input.Type != nil {
		query = query.Where("type = ?", *input.Type)
	}
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

	var categories []models.Category
	if err := query.Scopes(pagination.Paginate(page)).Order("sort, id").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update changes a category's mutable fields. The type is fixed at creation.
func (s *CategoryService) Update(sess *session.Session, categoryID uint, input CategoryUpdateInput) (*models.Category, error) {
	category, err := s.GetInBook(sess, categoryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, apperrors.ErrSelfParent
		}
		parent, err := s.GetInBook(sess, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != category.Type {
			return nil, apperrors.ErrInvalidInput
		}
		updates["parent_id"] = *input.ParentID
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Enable != nil {
		updates["enable"] = *input.Enable
	}
	if input.Sort != nil {
		updates["sort"] = *input.Sort
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.First(category, category.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// Remove deletes a category. Forbidden while it has children or any flow
// still references it.
func (s *CategoryService) Remove(sess *session.Session, categoryID uint) error {
	category, err := s.GetInBook(sess, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", category.ID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrEntityHasChildren
	}

	var relationCount int64
	if err := s.db.Model(&models.CategoryRelation{}).Where("category_id = ?", category.ID).Count(&relationCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if relationCount > 0 {
		return apperrors.ErrEntityInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

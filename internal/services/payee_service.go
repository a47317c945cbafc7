package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// PayeeService handles payee business logic within the active book.
type PayeeService struct {
	db *gorm.DB
}

// NewPayeeService creates a new PayeeService.
func NewPayeeService(db *gorm.DB) *PayeeService {
	return &PayeeService{db: db}
}

// PayeeAddInput holds the fields for creating a payee.
type PayeeAddInput struct {
	Name       string
	Notes      string
	CanExpense bool
	CanIncome  bool
	Sort       int
}

// PayeeUpdateInput holds the fields for updating a payee. Nil fields are
// left unchanged.
type PayeeUpdateInput struct {
	Name       *string
	Notes      *string
	Enable     *bool
	CanExpense *bool
	CanIncome  *bool
	Sort       *int
}

// PayeeQueryInput holds the optional filters for listing payees.
type PayeeQueryInput struct {
	Enable *bool
	Name   string
}

// GetInBook loads a payee and verifies it belongs to the active book.
func (s *PayeeService) GetInBook(sess *session.Session, payeeID uint) (*models.Payee, error) {
	var payee models.Payee
	if err := s.db.First(&payee, payeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payee.BookID != sess.Book.ID {
		return nil, apperrors.ErrItemNotFound
	}
	return &payee, nil
}

// Add creates a payee in the active book.
func (s *PayeeService) Add(sess *session.Session, input PayeeAddInput) (*models.Payee, error) {
	payee := &models.Payee{
		BookID:     sess.Book.ID,
		Name:       input.Name,
		Notes:      input.Notes,
		Enable:     true,
		CanExpense: input.CanExpense,
		CanIncome:  input.CanIncome,
		Sort:       input.Sort,
	}
	if err := s.db.Create(payee).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payee, nil
}

// Query lists the active book's payees with optional filters.
func (s *PayeeService) Query(sess *session.Session, input PayeeQueryInput, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error) {
	page.Defaults()

	query := s.db.Model(&models.Payee{}).Where("book_id = ?", sess.Book.ID)
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

	var payees []models.Payee
	if err := query.Scopes(pagination.Paginate(page)).Order("sort, id").Find(&payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payees, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update changes a payee's mutable fields.
func (s *PayeeService) Update(sess *session.Session, payeeID uint, input PayeeUpdateInput) (*models.Payee, error) {
	payee, err := s.GetInBook(sess, payeeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
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
	if input.Sort != nil {
		updates["sort"] = *input.Sort
	}
	if len(updates) == 0 {
		return payee, nil
	}

	if err := s.db.Model(payee).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.First(payee, payee.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payee, nil
}

// Remove deletes a payee. Forbidden while any flow still references it.
func (s *PayeeService) Remove(sess *session.Session, payeeID uint) error {
	payee, err := s.GetInBook(sess, payeeID)
	if err != nil {
		return err
	}

	var flowCount int64
	if err := s.db.Model(&models.BalanceFlow{}).Where("payee_id = ?", payee.ID).Count(&flowCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if flowCount > 0 {
		return apperrors.ErrEntityInUse
	}

	if err := s.db.Delete(payee).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

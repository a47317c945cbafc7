package services

import (
	"errors"

	"gorm.io/gorm"

	"moneybook/internal/booktpl"
	"moneybook/internal/config"
	"moneybook/internal/currency"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// BookService handles book-related business logic.
type BookService struct {
	db *gorm.DB
}

// NewBookService creates a new BookService.
func NewBookService(db *gorm.DB) *BookService {
	return &BookService{db: db}
}

// BookAddInput holds the fields for creating a book.
type BookAddInput struct {
	Name                string
	Notes               string
	DefaultCurrencyCode string
	TemplateID          *int
	Sort                int
}

// BookUpdateInput holds the optional fields for updating a book.
// Nil fields are left unchanged.
type BookUpdateInput struct {
	Name                         *string
	Notes                        *string
	Enable                       *bool
	DefaultCurrencyCode          *string
	DefaultExpenseAccountID      *uint
	DefaultIncomeAccountID       *uint
	DefaultTransferFromAccountID *uint
	DefaultTransferToAccountID   *uint
	Sort                         *int
}

// CreateFromTemplate creates a book under the given group and seeds it with
// the template's categories, tags and payees. Runs inside the caller's
// transaction.
func (s *BookService) CreateFromTemplate(tx *gorm.DB, groupID uint, tpl *booktpl.Template, currencyCode string) (*models.Book, error) {
	book := &models.Book{
		GroupID:             groupID,
		Name:                tpl.Name,
		Notes:               tpl.Notes,
		Enable:              true,
		DefaultCurrencyCode: currencyCode,
	}
	if err := tx.Create(book).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.seedCategories(tx, book.ID, nil, tpl.Categories); err != nil {
		return nil, err
	}
	if err := s.seedTags(tx, book.ID, nil, tpl.Tags); err != nil {
		return nil, err
	}
	for i, p := range tpl.Payees {
		payee := &models.Payee{
			BookID:     book.ID,
			Name:       p.Name,
			Enable:     true,
			CanExpense: true,
			CanIncome:  true,
			Sort:       i,
		}
		if err := tx.Create(payee).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return book, nil
}

func (s *BookService) seedCategories(tx *gorm.DB, bookID uint, parentID *uint, tpls []booktpl.CategoryTemplate) error {
	for i, c := range tpls {
		category := &models.Category{
			BookID:   bookID,
			Name:     c.Name,
			Type:     models.CategoryType(c.Type),
			ParentID: parentID,
			Enable:   true,
			Sort:     i,
		}
		if err := tx.Create(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.seedCategories(tx, bookID, &category.ID, c.Children); err != nil {
			return err
		}
	}
	return nil
}

func (s *BookService) seedTags(tx *gorm.DB, bookID uint, parentID *uint, tpls []booktpl.TagTemplate) error {
	for i, t := range tpls {
		tag := &models.Tag{
			BookID:      bookID,
			Name:        t.Name,
			ParentID:    parentID,
			Enable:      true,
			CanExpense:  true,
			CanIncome:   true,
			CanTransfer: true,
			Sort:        i,
		}
		if err := tx.Create(tag).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.seedTags(tx, bookID, &tag.ID, t.Children); err != nil {
			return err
		}
	}
	return nil
}

// Add creates a book in the session group, optionally seeded from a template.
func (s *BookService) Add(sess *session.Session, input BookAddInput) (*models.Book, error) {
	if input.Name == "" && input.TemplateID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "book name is required")
	}
	if input.DefaultCurrencyCode == "" {
		input.DefaultCurrencyCode = sess.Group.DefaultCurrencyCode
	}
	if !currency.Valid(input.DefaultCurrencyCode) {
		return nil, apperrors.ErrCurrencyUnknown
	}

	var count int64
	if err := s.db.Model(&models.Book{}).Where("group_id = ?", sess.Group.ID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count >= int64(config.Get().MaxBooksPerGroup) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "maximum number of books reached")
	}

	var book *models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.TemplateID != nil {
			tpl, ok := booktpl.ByID(*input.TemplateID)
			if !ok {
				return apperrors.ErrTemplateNotFound
			}
			var err error
			book, err = s.CreateFromTemplate(tx, sess.Group.ID, tpl, input.DefaultCurrencyCode)
			if err != nil {
				return err
			}
			if input.Name != "" {
				book.Name = input.Name
				if err := tx.Model(book).Update("name", input.Name).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			return nil
		}

		book = &models.Book{
			GroupID:             sess.Group.ID,
			Name:                input.Name,
			Notes:               input.Notes,
			Enable:              true,
			DefaultCurrencyCode: input.DefaultCurrencyCode,
			Sort:                input.Sort,
		}
		if err := tx.Create(book).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Query retrieves a paginated list of the session group's books.
func (s *BookService) Query(sess *session.Session, page pagination.PageRequest) (*pagination.PageResponse[models.Book], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Book{}).Where("group_id = ?", sess.Group.ID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var books []models.Book
	if err := base.Scopes(pagination.Paginate(page)).Order("sort, id").Find(&books).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(books, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetInGroup retrieves a book by ID and verifies it belongs to the session group.
func (s *BookService) GetInGroup(sess *session.Session, bookID uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if book.GroupID != sess.Group.ID {
		return nil, apperrors.ErrBookNotInGroup
	}
	return &book, nil
}

// Update updates a book in the session group.
func (s *BookService) Update(sess *session.Session, bookID uint, input BookUpdateInput) (*models.Book, error) {
	book, err := s.GetInGroup(sess, bookID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Enable != nil {
		updates["enable"] = *input.Enable
	}
	if input.DefaultCurrencyCode != nil {
		if !currency.Valid(*input.DefaultCurrencyCode) {
			return nil, apperrors.ErrCurrencyUnknown
		}
		updates["default_currency_code"] = *input.DefaultCurrencyCode
	}
	if input.Sort != nil {
		updates["sort"] = *input.Sort
	}

	// Default account references must point into this book.
	accountFields := map[string]*uint{
		"default_expense_account_id":       input.DefaultExpenseAccountID,
		"default_income_account_id":        input.DefaultIncomeAccountID,
		"default_transfer_from_account_id": input.DefaultTransferFromAccountID,
		"default_transfer_to_account_id":   input.DefaultTransferToAccountID,
	}
	for column, accountID := range accountFields {
		if accountID == nil {
			continue
		}
		var count int64
		if err := s.db.Model(&models.Account{}).
			Where("id = ? AND book_id = ?", *accountID, book.ID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrAccountNotInBook
		}
		updates[column] = *accountID
	}

	if len(updates) > 0 {
		if err := s.db.Model(book).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.First(book, book.ID).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return book, nil
}

// Remove deletes a book and its accounts, categories, tags and payees.
// Forbidden while the book has recorded flows or is the group's default.
func (s *BookService) Remove(sess *session.Session, bookID uint) error {
	book, err := s.GetInGroup(sess, bookID)
	if err != nil {
		return err
	}

	if sess.Group.DefaultBookID != nil && *sess.Group.DefaultBookID == book.ID {
		return apperrors.ErrBookIsDefault
	}

	var flowCount int64
	if err := s.db.Model(&models.BalanceFlow{}).Where("book_id = ?", book.ID).Count(&flowCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if flowCount > 0 {
		return apperrors.ErrBookHasFlows
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return removeBookContents(tx, book.ID)
	})
}

// removeBookContents deletes a book's dependent entities and the book itself.
// The caller provides the transaction; the book must have no flows.
func removeBookContents(tx *gorm.DB, bookID uint) error {
	for _, model := range []interface{}{
		&models.Category{},
		&models.Tag{},
		&models.Payee{},
		&models.Account{},
	} {
		if err := tx.Where("book_id = ?", bookID).Delete(model).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if err := tx.Delete(&models.Book{}, bookID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

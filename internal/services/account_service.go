package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"moneybook/internal/currency"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// AccountService handles account business logic within the active book.
type AccountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// AccountAddInput holds the fields for creating an account.
type AccountAddInput struct {
	Name            string
	Type            models.AccountType
	No              string
	CurrencyCode    string
	InitialBalance  float64
	Notes           string
	Include         bool
	CanExpense      bool
	CanIncome       bool
	CanTransferFrom bool
	CanTransferTo   bool
	Sort            int
	CreditLimit     *float64
	BillDay         *int
	Apr             *float64
}

// AccountUpdateInput holds the fields for updating an account. Nil fields
// are left unchanged.
type AccountUpdateInput struct {
	Name            *string
	No              *string
	Notes           *string
	Enable          *bool
	Include         *bool
	CanExpense      *bool
	CanIncome       *bool
	CanTransferFrom *bool
	CanTransferTo   *bool
	Sort            *int
	CreditLimit     *float64
	BillDay         *int
	Apr             *float64
}

// AccountQueryInput holds the optional filters for listing accounts.
type AccountQueryInput struct {
	Type   *models.AccountType
	Enable *bool
	Name   string
}

// GetInBook loads an account and verifies it belongs to the active book.
func (s *AccountService) GetInBook(sess *session.Session, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if account.BookID != sess.Book.ID {
		return nil, apperrors.ErrAccountNotInBook
	}
	return &account, nil
}

// Add creates an account in the active book. The opening balance equals the
// initial balance.
func (s *AccountService) Add(sess *session.Session, input AccountAddInput) (*models.Account, error) {
	if !currency.Valid(input.CurrencyCode) {
		return nil, apperrors.ErrCurrencyUnknown
	}

	account := &models.Account{
		BookID:          sess.Book.ID,
		Name:            input.Name,
		Type:            input.Type,
		No:              input.No,
		Balance:         input.InitialBalance,
		Enable:          true,
		Include:         input.Include,
		CanExpense:      input.CanExpense,
		CanIncome:       input.CanIncome,
		CanTransferFrom: input.CanTransferFrom,
		CanTransferTo:   input.CanTransferTo,
		CurrencyCode:    input.CurrencyCode,
		InitialBalance:  input.InitialBalance,
		Notes:           input.Notes,
		Sort:            input.Sort,
		CreditLimit:     input.CreditLimit,
		BillDay:         input.BillDay,
		Apr:             input.Apr,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// Query lists the active book's accounts with optional filters.
func (s *AccountService) Query(sess *session.Session, input AccountQueryInput, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	query := s.db.Model(&models.Account{}).Where("book_id = ?", sess.Book.ID)
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

	var accounts []models.Account
	if err := query.Scopes(pagination.Paginate(page)).Order("sort, id").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update changes an account's mutable fields.
func (s *AccountService) Update(sess *session.Session, accountID uint, input AccountUpdateInput) (*models.Account, error) {
	account, err := s.GetInBook(sess, accountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.No != nil {
		updates["no"] = *input.No
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Enable != nil {
		updates["enable"] = *input.Enable
	}
	if input.Include != nil {
		updates["include"] = *input.Include
	}
	if input.CanExpense != nil {
		updates["can_expense"] = *input.CanExpense
	}
	if input.CanIncome != nil {
		updates["can_income"] = *input.CanIncome
	}
	if input.CanTransferFrom != nil {
		updates["can_transfer_from"] = *input.CanTransferFrom
	}
	if input.CanTransferTo != nil {
		updates["can_transfer_to"] = *input.CanTransferTo
	}
	if input.Sort != nil {
		updates["sort"] = *input.Sort
	}
	if input.CreditLimit != nil {
		updates["credit_limit"] = *input.CreditLimit
	}
	if input.BillDay != nil {
		updates["bill_day"] = *input.BillDay
	}
	if input.Apr != nil {
		updates["apr"] = *input.Apr
	}
	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.First(account, account.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// Remove deletes an account. Forbidden while any flow still references it.
func (s *AccountService) Remove(sess *session.Session, accountID uint) error {
	account, err := s.GetInBook(sess, accountID)
	if err != nil {
		return err
	}

	var flowCount int64
	if err := s.db.Model(&models.BalanceFlow{}).
		Where("account_id = ? OR to_account_id = ?", account.ID, account.ID).
		Count(&flowCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if flowCount > 0 {
		return apperrors.ErrAccountHasFlows
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Adjust sets an account's balance to the given value and records the
// difference as an adjust flow so the change shows up in the history.
func (s *AccountService) Adjust(sess *session.Session, accountID uint, newBalance float64, title, notes string) (*models.BalanceFlow, error) {
	account, err := s.GetInBook(sess, accountID)
	if err != nil {
		return nil, err
	}

	diff := newBalance - account.Balance
	flow := &models.BalanceFlow{
		BookID:          account.BookID,
		Type:            models.FlowTypeAdjust,
		Amount:          diff,
		ConvertedAmount: diff,
		AccountID:       &account.ID,
		CreateTime:      time.Now().UnixMilli(),
		Title:           title,
		Notes:           notes,
		CreatorID:       sess.User.ID,
		GroupID:         sess.Group.ID,
		Confirm:         true,
		Include:         account.Include,
		InsertAt:        time.Now().UnixMilli(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(account).Update("balance", newBalance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(flow).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	account.Balance = newBalance
	return flow, nil
}

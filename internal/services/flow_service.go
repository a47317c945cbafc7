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

// FlowService handles balance flow business logic within the active book.
type FlowService struct {
	db *gorm.DB
}

// NewFlowService creates a new FlowService.
func NewFlowService(db *gorm.DB) *FlowService {
	return &FlowService{db: db}
}

// FlowCategoryInput is one category's share of a new flow.
type FlowCategoryInput struct {
	CategoryID uint
	Amount     float64
}

// FlowAddInput holds the fields for recording a flow.
type FlowAddInput struct {
	Type        models.FlowType
	Title       string
	CreateTime  int64
	AccountID   *uint
	ToAccountID *uint
	Amount      float64
	Rate        *float64
	PayeeID     *uint
	Categories  []FlowCategoryInput
	Tags        []uint
	Confirm     bool
	Include     bool
	Notes       string
}

// FlowUpdateInput holds the fields for updating a flow. Nil fields are left
// unchanged; a non-nil Categories or Tags slice replaces the existing set.
type FlowUpdateInput struct {
	Title      *string
	Notes      *string
	CreateTime *int64
	PayeeID    *uint
	Categories []FlowCategoryInput
	Tags       []uint
}

// FlowQueryInput holds the optional filters for listing flows.
type FlowQueryInput struct {
	Type        *models.FlowType
	Title       string
	MinTime     *int64
	MaxTime     *int64
	AccountID   *uint
	PayeeIDs    []uint
	CategoryIDs []uint
	TagIDs      []uint
	Confirm     *bool
}

// Get loads a flow with its category and tag relations and verifies it
// belongs to the active book.
func (s *FlowService) Get(sess *session.Session, flowID uint) (*models.BalanceFlow, error) {
	var flow models.BalanceFlow
	err := s.db.Preload("Categories").Preload("Tags").First(&flow, flowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if flow.BookID != sess.Book.ID {
		return nil, apperrors.ErrItemNotFound
	}
	return &flow, nil
}

// checkAccount verifies the account exists in the active book, is enabled
// and supports the requested flow direction.
func (s *FlowService) checkAccount(sess *session.Session, accountID uint, flowType models.FlowType, transferTo bool) (*models.Account, error) {
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
	if !account.Enable {
		return nil, apperrors.ErrAccountDisabled
	}
	allowed := true
	switch flowType {
	case models.FlowTypeExpense:
		allowed = account.CanExpense
	case models.FlowTypeIncome:
		allowed = account.CanIncome
	case models.FlowTypeTransfer:
		if transferTo {
			allowed = account.CanTransferTo
		} else {
			allowed = account.CanTransferFrom
		}
	}
	if !allowed {
		return nil, apperrors.ErrAccountDisabled
	}
	return &account, nil
}

// checkCategories verifies every referenced category belongs to the active
// book, is enabled and matches the flow type.
func (s *FlowService) checkCategories(sess *session.Session, flowType models.FlowType, inputs []FlowCategoryInput) error {
	want := models.CategoryTypeExpense
	if flowType == models.FlowTypeIncome {
		want = models.CategoryTypeIncome
	}
	for _, in := range inputs {
		var category models.Category
		if err := s.db.First(&category, in.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if category.BookID != sess.Book.ID || !category.Enable || category.Type != want {
			return apperrors.ErrInvalidInput
		}
	}
	return nil
}

// checkTags verifies every referenced tag belongs to the active book and is
// enabled.
func (s *FlowService) checkTags(sess *session.Session, tagIDs []uint) error {
	for _, id := range tagIDs {
		var tag models.Tag
		if err := s.db.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if tag.BookID != sess.Book.ID || !tag.Enable {
			return apperrors.ErrInvalidInput
		}
	}
	return nil
}

// applyBalance moves account balances for a flow. direction is +1 when the
// flow takes effect and -1 when it is rolled back.
func applyBalance(tx *gorm.DB, flow *models.BalanceFlow, direction float64) error {
	switch flow.Type {
	case models.FlowTypeExpense:
		if flow.AccountID != nil {
			if err := shiftBalance(tx, *flow.AccountID, -flow.Amount*direction); err != nil {
				return err
			}
		}
	case models.FlowTypeIncome:
		if flow.AccountID != nil {
			if err := shiftBalance(tx, *flow.AccountID, flow.Amount*direction); err != nil {
				return err
			}
		}
	case models.FlowTypeTransfer:
		if err := shiftBalance(tx, *flow.AccountID, -flow.Amount*direction); err != nil {
			return err
		}
		if err := shiftBalance(tx, *flow.ToAccountID, flow.ConvertedAmount*direction); err != nil {
			return err
		}
	case models.FlowTypeAdjust:
		// Adjust flows record an already-applied balance change.
	}
	return nil
}

func shiftBalance(tx *gorm.DB, accountID uint, delta float64) error {
	err := tx.Model(&models.Account{}).Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Add records a flow in the active book. Expense and income flows take their
// amount from the category splits; transfers move between two distinct
// accounts. Balances move only when the flow is confirmed.
func (s *FlowService) Add(sess *session.Session, input FlowAddInput) (*models.BalanceFlow, error) {
	rate := 1.0
	if input.Rate != nil {
		if *input.Rate <= 0 {
			return nil, apperrors.ErrInvalidInput
		}
		rate = *input.Rate
	}

	flow := &models.BalanceFlow{
		BookID:     sess.Book.ID,
		Type:       input.Type,
		AccountID:  input.AccountID,
		CreateTime: input.CreateTime,
		Title:      input.Title,
		Notes:      input.Notes,
		CreatorID:  sess.User.ID,
		GroupID:    sess.Group.ID,
		Confirm:    input.Confirm,
		Include:    input.Include,
		InsertAt:   time.Now().UnixMilli(),
	}
	if flow.CreateTime == 0 {
		flow.CreateTime = time.Now().UnixMilli()
	}

	switch input.Type {
	case models.FlowTypeExpense, models.FlowTypeIncome:
		if len(input.Categories) == 0 {
			return nil, apperrors.ErrFlowNoCategories
		}
		if input.AccountID != nil {
			if _, err := s.checkAccount(sess, *input.AccountID, input.Type, false); err != nil {
				return nil, err
			}
		}
		if err := s.checkCategories(sess, input.Type, input.Categories); err != nil {
			return nil, err
		}
		var amount, converted float64
		for _, in := range input.Categories {
			if in.Amount <= 0 {
				return nil, apperrors.ErrInvalidInput
			}
			amount += in.Amount
			converted += in.Amount * rate
			flow.Categories = append(flow.Categories, models.CategoryRelation{
				CategoryID:      in.CategoryID,
				Amount:          in.Amount,
				ConvertedAmount: in.Amount * rate,
			})
		}
		flow.Amount = amount
		flow.ConvertedAmount = converted
		if input.PayeeID != nil {
			payee, err := s.getPayee(sess, *input.PayeeID)
			if err != nil {
				return nil, err
			}
			if (input.Type == models.FlowTypeExpense && !payee.CanExpense) ||
				(input.Type == models.FlowTypeIncome && !payee.CanIncome) {
				return nil, apperrors.ErrInvalidInput
			}
			flow.PayeeID = input.PayeeID
		}
	case models.FlowTypeTransfer:
		if input.AccountID == nil || input.ToAccountID == nil {
			return nil, apperrors.ErrInvalidInput
		}
		if *input.AccountID == *input.ToAccountID {
			return nil, apperrors.ErrFlowSameAccount
		}
		if input.Amount <= 0 {
			return nil, apperrors.ErrInvalidInput
		}
		if _, err := s.checkAccount(sess, *input.AccountID, input.Type, false); err != nil {
			return nil, err
		}
		if _, err := s.checkAccount(sess, *input.ToAccountID, input.Type, true); err != nil {
			return nil, err
		}
		flow.ToAccountID = input.ToAccountID
		flow.Amount = input.Amount
		flow.ConvertedAmount = input.Amount * rate
	default:
		return nil, apperrors.ErrInvalidInput
	}

	if err := s.checkTags(sess, input.Tags); err != nil {
		return nil, err
	}
	for _, id := range input.Tags {
		flow.Tags = append(flow.Tags, models.TagRelation{TagID: id})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(flow).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if flow.Confirm {
			return applyBalance(tx, flow, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// Query lists the active book's flows newest first, with optional filters.
func (s *FlowService) Query(sess *session.Session, input FlowQueryInput, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceFlow], error) {
	page.Defaults()

	query := s.db.Model(&models.BalanceFlow{}).Where("book_id = ?", sess.Book.ID)
	if input.Type != nil {
		query = query.Where("type = ?", *input.Type)
	}
	if input.Title != "" {
		query = query.Where("title LIKE ?", "%"+input.Title+"%")
	}
	if input.MinTime != nil {
		query = query.Where("create_time >= ?", *input.MinTime)
	}
	if input.MaxTime != nil {
		query = query.Where("create_time <= ?", *input.MaxTime)
	}
	if input.AccountID != nil {
		query = query.Where("account_id = ? OR to_account_id = ?", *input.AccountID, *input.AccountID)
	}
	if len(input.PayeeIDs) > 0 {
		query = query.Where("payee_id IN ?", input.PayeeIDs)
	}
	if len(input.CategoryIDs) > 0 {
		query = query.Where("id IN (?)", s.db.Model(&models.CategoryRelation{}).
			Select("flow_id").Where("category_id IN ?", input.CategoryIDs))
	}
	if len(input.TagIDs) > 0 {
		query = query.Where("id IN (?)", s.db.Model(&models.TagRelation{}).
			Select("flow_id").Where("tag_id IN ?", input.TagIDs))
	}
	if input.Confirm != nil {
		query = query.Where("confirm = ?", *input.Confirm)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var flows []models.BalanceFlow
	err := query.Preload("Categories").Preload("Tags").
		Scopes(pagination.Paginate(page)).
		Order("create_time DESC, id DESC").
		Find(&flows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(flows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update changes a flow's descriptive fields and, when given, replaces its
// category splits or tags. Balances of confirmed flows are rolled back and
// re-applied so account totals stay consistent.
func (s *FlowService) Update(sess *session.Session, flowID uint, input FlowUpdateInput) (*models.BalanceFlow, error) {
	flow, err := s.Get(sess, flowID)
	if err != nil {
		return nil, err
	}

	if input.PayeeID != nil {
		if flow.Type != models.FlowTypeExpense && flow.Type != models.FlowTypeIncome {
			return nil, apperrors.ErrInvalidInput
		}
		if _, err := s.getPayee(sess, *input.PayeeID); err != nil {
			return nil, err
		}
	}
	if input.Categories != nil {
		if flow.Type != models.FlowTypeExpense && flow.Type != models.FlowTypeIncome {
			return nil, apperrors.ErrInvalidInput
		}
		if len(input.Categories) == 0 {
			return nil, apperrors.ErrFlowNoCategories
		}
		if err := s.checkCategories(sess, flow.Type, input.Categories); err != nil {
			return nil, err
		}
	}
	if input.Tags != nil {
		if err := s.checkTags(sess, input.Tags); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if flow.Confirm {
			if err := applyBalance(tx, flow, -1); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = *input.Title
			flow.Title = *input.Title
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
			flow.Notes = *input.Notes
		}
		if input.CreateTime != nil {
			updates["create_time"] = *input.CreateTime
			flow.CreateTime = *input.CreateTime
		}
		if input.PayeeID != nil {
			updates["payee_id"] = *input.PayeeID
			flow.PayeeID = input.PayeeID
		}

		if input.Categories != nil {
			if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.CategoryRelation{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			var amount float64
			relations := make([]models.CategoryRelation, 0, len(input.Categories))
			for _, in := range input.Categories {
				if in.Amount <= 0 {
					return apperrors.ErrInvalidInput
				}
				amount += in.Amount
				relations = append(relations, models.CategoryRelation{
					FlowID:          flow.ID,
					CategoryID:      in.CategoryID,
					Amount:          in.Amount,
					ConvertedAmount: in.Amount,
				})
			}
			if err := tx.Create(&relations).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["amount"] = amount
			updates["converted_amount"] = amount
			flow.Amount = amount
			flow.ConvertedAmount = amount
			flow.Categories = relations
		}
		if input.Tags != nil {
			if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.TagRelation{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			relations := make([]models.TagRelation, 0, len(input.Tags))
			for _, id := range input.Tags {
				relations = append(relations, models.TagRelation{FlowID: flow.ID, TagID: id})
			}
			if len(relations) > 0 {
				if err := tx.Create(&relations).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			flow.Tags = relations
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.BalanceFlow{}).Where("id = ?", flow.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if flow.Confirm {
			return applyBalance(tx, flow, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// Remove deletes a flow and its relations, rolling back its balance effect
// when it was confirmed.
func (s *FlowService) Remove(sess *session.Session, flowID uint) error {
	flow, err := s.Get(sess, flowID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if flow.Confirm {
			if err := applyBalance(tx, flow, -1); err != nil {
				return err
			}
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.CategoryRelation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.TagRelation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.BalanceFlow{}, flow.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Confirm marks an unconfirmed flow as confirmed and applies its balance
// effect.
func (s *FlowService) Confirm(sess *session.Session, flowID uint) (*models.BalanceFlow, error) {
	flow, err := s.Get(sess, flowID)
	if err != nil {
		return nil, err
	}
	if flow.Confirm {
		return nil, apperrors.ErrFlowAlreadyConfirm
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BalanceFlow{}).Where("id = ?", flow.ID).Update("confirm", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return applyBalance(tx, flow, 1)
	})
	if err != nil {
		return nil, err
	}
	flow.Confirm = true
	return flow, nil
}

func (s *FlowService) getPayee(sess *session.Session, payeeID uint) (*models.Payee, error) {
	var payee models.Payee
	if err := s.db.First(&payee, payeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payee.BookID != sess.Book.ID || !payee.Enable {
		return nil, apperrors.ErrInvalidInput
	}
	return &payee, nil
}

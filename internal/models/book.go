package models

// Book is a ledger scoped to one group. Accounts, categories, tags, payees
// and balance flows all hang off a book.
type Book struct {
	Base
	GroupID                      uint   `gorm:"not null;index" json:"group_id"`
	Name                         string `gorm:"size:64;not null" json:"name"`
	Notes                        string `gorm:"size:1024" json:"notes"`
	Enable                       bool   `gorm:"not null;default:true" json:"enable"`
	DefaultExpenseAccountID      *uint  `json:"default_expense_account_id"`
	DefaultIncomeAccountID       *uint  `json:"default_income_account_id"`
	DefaultTransferFromAccountID *uint  `json:"default_transfer_from_account_id"`
	DefaultTransferToAccountID   *uint  `json:"default_transfer_to_account_id"`
	DefaultCurrencyCode          string `gorm:"size:8;not null" json:"default_currency_code"`
	Sort                         int    `json:"sort"`
}

// TableName maps Book to its legacy table name.
func (Book) TableName() string { return "t_user_book" }

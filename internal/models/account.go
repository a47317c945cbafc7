package models

// AccountType classifies a money container.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeCredit   AccountType = "credit"
	AccountTypeAsset    AccountType = "asset"
	AccountTypeDebt     AccountType = "debt"
)

// Account is a money container within a book.
type Account struct {
	Base
	BookID          uint        `gorm:"not null;index" json:"book_id"`
	Name            string      `gorm:"size:64;not null" json:"name"`
	Type            AccountType `gorm:"size:16;not null" json:"type"`
	No              string      `gorm:"size:32" json:"no"`
	Balance         float64     `gorm:"not null;default:0" json:"balance"`
	Enable          bool        `gorm:"not null;default:true" json:"enable"`
	Include         bool        `gorm:"not null;default:true" json:"include"`
	CanExpense      bool        `gorm:"not null;default:true" json:"can_expense"`
	CanIncome       bool        `gorm:"not null;default:true" json:"can_income"`
	CanTransferFrom bool        `gorm:"not null;default:true" json:"can_transfer_from"`
	CanTransferTo   bool        `gorm:"not null;default:true" json:"can_transfer_to"`
	CurrencyCode    string      `gorm:"size:8;not null" json:"currency_code"`
	InitialBalance  float64     `json:"initial_balance"`
	Notes           string      `gorm:"size:1024" json:"notes"`
	Sort            int         `json:"sort"`

	// Credit accounts only.
	CreditLimit *float64 `json:"credit_limit,omitempty"`
	BillDay     *int     `json:"bill_day,omitempty"`
	Apr         *float64 `json:"apr,omitempty"`
}

// TableName maps Account to its legacy table name.
func (Account) TableName() string { return "t_user_account" }

// RemainLimit returns the remaining credit for credit accounts.
// Credit balances are stored as negatives, so the remainder is limit + balance.
func (a *Account) RemainLimit() *float64 {
	if a.CreditLimit == nil {
		return nil
	}
	remain := *a.CreditLimit + a.Balance
	return &remain
}

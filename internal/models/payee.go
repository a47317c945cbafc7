package models

// Payee is a book-scoped counterparty for expense and income flows.
type Payee struct {
	Base
	BookID     uint   `gorm:"not null;index" json:"book_id"`
	Name       string `gorm:"size:64;not null" json:"name"`
	Notes      string `gorm:"size:1024" json:"notes"`
	Enable     bool   `gorm:"not null;default:true" json:"enable"`
	CanExpense bool   `gorm:"not null;default:true" json:"can_expense"`
	CanIncome  bool   `gorm:"not null;default:true" json:"can_income"`
	Sort       int    `json:"sort"`
}

// TableName maps Payee to its legacy table name.
func (Payee) TableName() string { return "t_user_payee" }

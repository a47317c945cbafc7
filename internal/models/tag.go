package models

// Tag is a book-scoped label for flows. Tags may nest one level deep or more
// via ParentID.
type Tag struct {
	Base
	BookID      uint   `gorm:"not null;index" json:"book_id"`
	Name        string `gorm:"size:64;not null" json:"name"`
	ParentID    *uint  `json:"parent_id"`
	Enable      bool   `gorm:"not null;default:true" json:"enable"`
	CanExpense  bool   `gorm:"not null;default:true" json:"can_expense"`
	CanIncome   bool   `gorm:"not null;default:true" json:"can_income"`
	CanTransfer bool   `gorm:"not null;default:true" json:"can_transfer"`
	Notes       string `gorm:"size:1024" json:"notes"`
	Sort        int    `json:"sort"`
}

// TableName maps Tag to its legacy table name.
func (Tag) TableName() string { return "t_user_tag" }

package models

// CategoryType distinguishes expense and income categories.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// Category is a book-scoped, optionally hierarchical classification for flows.
type Category struct {
	Base
	BookID   uint         `gorm:"not null;index" json:"book_id"`
	Name     string       `gorm:"size:64;not null" json:"name"`
	Type     CategoryType `gorm:"size:16;not null" json:"type"`
	ParentID *uint        `json:"parent_id"`
	Enable   bool         `gorm:"not null;default:true" json:"enable"`
	Notes    string       `gorm:"size:1024" json:"notes"`
	Sort     int          `json:"sort"`
}

// TableName maps Category to its legacy table name.
func (Category) TableName() string { return "t_user_category" }

package models

// Group is a collection of users sharing one or more books.
type Group struct {
	Base
	Name                string `gorm:"size:64;not null" json:"name"`
	Notes               string `gorm:"size:1024" json:"notes"`
	Enable              bool   `gorm:"not null;default:true" json:"enable"`
	CreatorID           uint   `gorm:"not null" json:"creator_id"`
	DefaultBookID       *uint  `json:"default_book_id"`
	DefaultCurrencyCode string `gorm:"size:8;not null" json:"default_currency_code"`
}

// TableName maps Group to its legacy table name.
func (Group) TableName() string { return "t_user_group" }

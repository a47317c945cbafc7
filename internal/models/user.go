package models

// User represents a registered account holder.
type User struct {
	Base
	Username       string `gorm:"size:32;not null;uniqueIndex" json:"username"`
	NickName       string `gorm:"size:32" json:"nick_name"`
	Password       string `gorm:"size:128;not null" json:"-"`
	Enable         bool   `gorm:"not null;default:true" json:"enable"`
	RegisterTime   int64  `gorm:"not null" json:"register_time"`
	DefaultGroupID *uint  `json:"default_group_id"`
	DefaultBookID  *uint  `json:"default_book_id"`
}

// TableName maps User to its legacy table name.
func (User) TableName() string { return "t_user_user" }

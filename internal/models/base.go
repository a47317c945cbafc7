package models

// Base contains the common identity column for all tables.
type Base struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

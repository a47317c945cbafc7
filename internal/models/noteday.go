package models

// RepeatType is a note day's repeat policy.
type RepeatType int

const (
	RepeatNone    RepeatType = 0
	RepeatDaily   RepeatType = 1
	RepeatMonthly RepeatType = 2
	RepeatYearly  RepeatType = 3
)

// Valid reports whether r is one of the defined repeat policies.
func (r RepeatType) Valid() bool {
	return r >= RepeatNone && r <= RepeatYearly
}

// NoteDay is a user-scoped reminder with an optional repeat policy.
// Dates are unix milliseconds.
type NoteDay struct {
	Base
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Title      string     `gorm:"size:16;not null" json:"title"`
	Notes      string     `gorm:"size:1024" json:"notes"`
	StartDate  int64      `gorm:"not null" json:"start_date"`
	EndDate    int64      `json:"end_date"`
	NextDate   int64      `json:"next_date"`
	RepeatType RepeatType `gorm:"not null" json:"repeat_type"`
	Interval   int        `gorm:"column:c_interval" json:"interval"`
	TotalCount int        `gorm:"not null" json:"total_count"`
	RunCount   int        `gorm:"not null" json:"run_count"`
}

// TableName maps NoteDay to its legacy table name.
func (NoteDay) TableName() string { return "t_user_note_day" }

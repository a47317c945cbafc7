package models

// FlowType classifies a balance flow.
type FlowType string

const (
	FlowTypeExpense  FlowType = "expense"
	FlowTypeIncome   FlowType = "income"
	FlowTypeTransfer FlowType = "transfer"
	FlowTypeAdjust   FlowType = "adjust"
)

// BalanceFlow is a single recorded transaction within a book.
// Expense and income flows split their amount across one or more category
// relations; transfers move between two accounts.
type BalanceFlow struct {
	Base
	BookID          uint     `gorm:"not null;index" json:"book_id"`
	Type            FlowType `gorm:"size:16;not null" json:"type"`
	Amount          float64  `gorm:"not null" json:"amount"`
	ConvertedAmount float64  `json:"converted_amount"`
	AccountID       *uint    `gorm:"index" json:"account_id"`
	ToAccountID     *uint    `json:"to_account_id"`
	CreateTime      int64    `gorm:"not null;index" json:"create_time"`
	Title           string   `gorm:"size:64" json:"title"`
	Notes           string   `gorm:"size:1024" json:"notes"`
	CreatorID       uint     `gorm:"not null" json:"creator_id"`
	GroupID         uint     `gorm:"not null" json:"group_id"`
	PayeeID         *uint    `json:"payee_id"`
	Confirm         bool     `gorm:"not null;default:true" json:"confirm"`
	Include         bool     `gorm:"not null;default:true" json:"include"`
	InsertAt        int64    `gorm:"not null" json:"insert_at"`

	Categories []CategoryRelation `gorm:"foreignKey:FlowID" json:"categories,omitempty"`
	Tags       []TagRelation      `gorm:"foreignKey:FlowID" json:"tags,omitempty"`
}

// TableName maps BalanceFlow to its legacy table name.
func (BalanceFlow) TableName() string { return "t_user_balance_flow" }

// CategoryRelation is one category's share of a flow amount.
type CategoryRelation struct {
	Base
	FlowID          uint    `gorm:"not null;index" json:"flow_id"`
	CategoryID      uint    `gorm:"not null;index" json:"category_id"`
	Amount          float64 `gorm:"not null" json:"amount"`
	ConvertedAmount float64 `json:"converted_amount"`
}

// TableName maps CategoryRelation to its legacy table name.
func (CategoryRelation) TableName() string { return "t_user_category_relation" }

// TagRelation attaches a tag to a flow.
type TagRelation struct {
	Base
	FlowID uint `gorm:"not null;index" json:"flow_id"`
	TagID  uint `gorm:"not null;index" json:"tag_id"`
}

// TableName maps TagRelation to its legacy table name.
func (TagRelation) TableName() string { return "t_user_tag_relation" }

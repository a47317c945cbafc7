package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneybook/internal/models"
	"moneybook/internal/session"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	username := fmt.Sprintf("user%d", nextID())
	return CreateTestUserWithUsername(t, db, username)
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		NickName:     username,
		Password:     string(hash),
		Enable:       true,
		RegisterTime: time.Now().UnixMilli(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestGroup creates a group owned by the given user, including the
// owner membership.
func CreateTestGroup(t *testing.T, db *gorm.DB, creatorID uint) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:                fmt.Sprintf("Test Group %d", nextID()),
		Enable:              true,
		CreatorID:           creatorID,
		DefaultCurrencyCode: "CNY",
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	relation := &models.UserGroupRelation{UserID: creatorID, GroupID: group.ID, Role: models.RoleOwner}
	if err := db.Create(relation).Error; err != nil {
		t.Fatalf("failed to create owner relation: %v", err)
	}
	return group
}

// CreateTestRelation creates a membership with the given role.
func CreateTestRelation(t *testing.T, db *gorm.DB, userID, groupID uint, role models.Role) *models.UserGroupRelation {
	t.Helper()

	relation := &models.UserGroupRelation{UserID: userID, GroupID: groupID, Role: role}
	if err := db.Create(relation).Error; err != nil {
		t.Fatalf("failed to create test relation: %v", err)
	}
	return relation
}

// CreateTestBook creates a book in the given group and marks it as the
// group's default book when the group has none.
func CreateTestBook(t *testing.T, db *gorm.DB, groupID uint) *models.Book {
	t.Helper()

	book := &models.Book{
		GroupID:             groupID,
		Name:                fmt.Sprintf("Test Book %d", nextID()),
		Enable:              true,
		DefaultCurrencyCode: "CNY",
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("failed to create test book: %v", err)
	}

	var group models.Group
	if err := db.First(&group, groupID).Error; err == nil && group.DefaultBookID == nil {
		if err := db.Model(&group).Update("default_book_id", book.ID).Error; err != nil {
			t.Fatalf("failed to set group default book: %v", err)
		}
	}
	return book
}

// CreateTestAccount creates an enabled checking account with the given balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, bookID uint, balance float64) *models.Account {
	t.Helper()

	account := &models.Account{
		BookID:          bookID,
		Name:            fmt.Sprintf("Test Account %d", nextID()),
		Type:            models.AccountTypeChecking,
		Balance:         balance,
		Enable:          true,
		Include:         true,
		CanExpense:      true,
		CanIncome:       true,
		CanTransferFrom: true,
		CanTransferTo:   true,
		CurrencyCode:    "CNY",
		InitialBalance:  balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates an enabled category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, bookID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		BookID: bookID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
		Enable: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTag creates an enabled tag usable on all flow types.
func CreateTestTag(t *testing.T, db *gorm.DB, bookID uint) *models.Tag {
	t.Helper()

	tag := &models.Tag{
		BookID:      bookID,
		Name:        fmt.Sprintf("Test Tag %d", nextID()),
		Enable:      true,
		CanExpense:  true,
		CanIncome:   true,
		CanTransfer: true,
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

// CreateTestPayee creates an enabled payee usable for expense and income.
func CreateTestPayee(t *testing.T, db *gorm.DB, bookID uint) *models.Payee {
	t.Helper()

	payee := &models.Payee{
		BookID:     bookID,
		Name:       fmt.Sprintf("Test Payee %d", nextID()),
		Enable:     true,
		CanExpense: true,
		CanIncome:  true,
	}
	if err := db.Create(payee).Error; err != nil {
		t.Fatalf("failed to create test payee: %v", err)
	}
	return payee
}

// CreateTestFlow inserts a confirmed expense flow directly. Balances are not
// touched; use FlowService.Add when balance effects matter.
func CreateTestFlow(t *testing.T, db *gorm.DB, bookID, groupID, creatorID uint, amount float64) *models.BalanceFlow {
	t.Helper()

	flow := &models.BalanceFlow{
		BookID:          bookID,
		Type:            models.FlowTypeExpense,
		Amount:          amount,
		ConvertedAmount: amount,
		CreateTime:      time.Now().UnixMilli(),
		Title:           fmt.Sprintf("Test Flow %d", nextID()),
		CreatorID:       creatorID,
		GroupID:         groupID,
		Confirm:         true,
		Include:         true,
		InsertAt:        time.Now().UnixMilli(),
	}
	if err := db.Create(flow).Error; err != nil {
		t.Fatalf("failed to create test flow: %v", err)
	}
	return flow
}

// NewTestSession creates a user with an owned group and default book and
// returns a session pointing at them.
func NewTestSession(t *testing.T, db *gorm.DB) *session.Session {
	t.Helper()

	user := CreateTestUser(t, db)
	group := CreateTestGroup(t, db, user.ID)
	book := CreateTestBook(t, db, group.ID)
	group.DefaultBookID = &book.ID

	if err := db.Model(user).Updates(map[string]interface{}{
		"default_group_id": group.ID,
		"default_book_id":  book.ID,
	}).Error; err != nil {
		t.Fatalf("failed to set user defaults: %v", err)
	}
	user.DefaultGroupID = &group.ID
	user.DefaultBookID = &book.ID

	return &session.Session{User: user, Group: group, Book: book}
}

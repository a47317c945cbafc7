package testutil_test

import (
	"testing"

	"moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{
		"t_user_user", "t_user_group", "t_user_user_group_relation",
		"t_user_book", "t_user_account", "t_user_category", "t_user_tag",
		"t_user_payee", "t_user_balance_flow", "t_user_category_relation",
		"t_user_tag_relation", "t_user_note_day",
	} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	group := testutil.CreateTestGroup(t, db, user.ID)
	if group.CreatorID != user.ID {
		t.Errorf("expected creator %d, got %d", user.ID, group.CreatorID)
	}
	var relation models.UserGroupRelation
	if err := db.Where("user_id = ? AND group_id = ?", user.ID, group.ID).First(&relation).Error; err != nil {
		t.Fatalf("group fixture should create an owner relation: %v", err)
	}
	if relation.Role != models.RoleOwner {
		t.Errorf("expected owner role, got %d", relation.Role)
	}

	book := testutil.CreateTestBook(t, db, group.ID)
	if book.GroupID != group.ID {
		t.Errorf("expected book in group %d, got %d", group.ID, book.GroupID)
	}

	account := testutil.CreateTestAccount(t, db, book.ID, 5000)
	if account.Balance != 5000 {
		t.Errorf("expected balance 5000, got %f", account.Balance)
	}

	category := testutil.CreateTestCategory(t, db, book.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	flow := testutil.CreateTestFlow(t, db, book.ID, group.ID, user.ID, 1000)
	if flow.Amount != 1000 {
		t.Errorf("expected amount 1000, got %f", flow.Amount)
	}
}

func TestNewTestSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	sess := testutil.NewTestSession(t, db)
	if sess.User == nil || sess.Group == nil || sess.Book == nil {
		t.Fatal("session should carry user, group and book")
	}
	if sess.User.DefaultGroupID == nil || *sess.User.DefaultGroupID != sess.Group.ID {
		t.Error("session group should be the user's default")
	}
	if sess.Book.GroupID != sess.Group.ID {
		t.Error("session book should live in the session group")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrItemNotFound, "custom message")
	testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

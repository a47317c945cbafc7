package services

import (
	"testing"

	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/testutil"
)

func TestTagAdd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		tag, err := svc.Add(sess, TagAddInput{
			Name:        "travel",
			CanExpense:  true,
			CanTransfer: true,
		})
		testutil.AssertNoError(t, err)

		if tag.BookID != sess.Book.ID {
			t.Errorf("tag book is %d, want %d", tag.BookID, sess.Book.ID)
		}
		if !tag.Enable {
			t.Error("new tag should be enabled")
		}
	})

	t.Run("parent_in_other_book", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		otherBook := testutil.CreateTestBook(t, db, sess.Group.ID)
		parent := testutil.CreateTestTag(t, db, otherBook.ID)
		_, err := svc.Add(sess, TagAddInput{Name: "travel", ParentID: &parent.ID})
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})
}

func TestTagQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTagService(db)
	sess := testutil.NewTestSession(t, db)

	active := testutil.CreateTestTag(t, db, sess.Book.ID)
	disabled := testutil.CreateTestTag(t, db, sess.Book.ID)
	db.Model(disabled).Update("enable", false)

	enabled := true
	result, err := svc.Query(sess, TagQueryInput{Enable: &enabled}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)

	if len(result.Data) != 1 || result.Data[0].ID != active.ID {
		t.Fatalf("expected only the enabled tag, got %d results", len(result.Data))
	}
}

func TestTagUpdate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		tag := testutil.CreateTestTag(t, db, sess.Book.ID)
		name := "commute"
		canTransfer := false
		updated, err := svc.Update(sess, tag.ID, TagUpdateInput{Name: &name, CanTransfer: &canTransfer})
		testutil.AssertNoError(t, err)

		if updated.Name != "commute" {
			t.Errorf("expected name commute, got %s", updated.Name)
		}
		if updated.CanTransfer {
			t.Error("transfer capability should be cleared")
		}
	})

	t.Run("self_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		tag := testutil.CreateTestTag(t, db, sess.Book.ID)
		_, err := svc.Update(sess, tag.ID, TagUpdateInput{ParentID: &tag.ID})
		testutil.AssertAppError(t, err, "SELF_PARENT")
	})
}

func TestTagRemove(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		tag := testutil.CreateTestTag(t, db, sess.Book.ID)
		err := svc.Remove(sess, tag.ID)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Tag{}).Where("id = ?", tag.ID).Count(&count)
		if count != 0 {
			t.Error("tag should be deleted")
		}
	})

	t.Run("has_children", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		parent := testutil.CreateTestTag(t, db, sess.Book.ID)
		child := testutil.CreateTestTag(t, db, sess.Book.ID)
		db.Model(child).Update("parent_id", parent.ID)

		err := svc.Remove(sess, parent.ID)
		testutil.AssertAppError(t, err, "ENTITY_HAS_CHILDREN")
	})

	t.Run("referenced_by_flow", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		sess := testutil.NewTestSession(t, db)

		tag := testutil.CreateTestTag(t, db, sess.Book.ID)
		flow := testutil.CreateTestFlow(t, db, sess.Book.ID, sess.Group.ID, sess.User.ID, 10)
		relation := models.TagRelation{FlowID: flow.ID, TagID: tag.ID}
		if err := db.Create(&relation).Error; err != nil {
			t.Fatalf("failed to create tag relation: %v", err)
		}

		err := svc.Remove(sess, tag.ID)
		testutil.AssertAppError(t, err, "ENTITY_IN_USE")
	})
}

package services

import (
	"testing"

	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
	"moneybook/internal/testutil"

	"gorm.io/gorm"
)

func newGroupService(db *gorm.DB) *GroupService {
	return NewGroupService(db, NewBookService(db), session.NewResolver(db))
}

func TestGroupAdd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		group, err := svc.Add(sess, GroupAddInput{
			Name:                "Family",
			DefaultCurrencyCode: "USD",
			TemplateID:          1,
		})
		testutil.AssertNoError(t, err)

		if group.ID == 0 {
			t.Fatal("expected non-zero group ID")
		}
		if group.DefaultBookID == nil {
			t.Fatal("expected a default book to be created")
		}

		var book models.Book
		if err := db.First(&book, *group.DefaultBookID).Error; err != nil {
			t.Fatalf("default book should exist: %v", err)
		}
		if book.GroupID != group.ID {
			t.Errorf("default book belongs to group %d, want %d", book.GroupID, group.ID)
		}

		// Template seeding populates the new book.
		var categoryCount int64
		db.Model(&models.Category{}).Where("book_id = ?", book.ID).Count(&categoryCount)
		if categoryCount == 0 {
			t.Error("expected template categories in the default book")
		}

		var relation models.UserGroupRelation
		if err := db.Where("user_id = ? AND group_id = ?", sess.User.ID, group.ID).First(&relation).Error; err != nil {
			t.Fatalf("owner relation should exist: %v", err)
		}
		if relation.Role != models.RoleOwner {
			t.Errorf("expected owner role, got %d", relation.Role)
		}
	})

	t.Run("unknown_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		_, err := svc.Add(sess, GroupAddInput{Name: "X", DefaultCurrencyCode: "NOPE", TemplateID: 1})
		testutil.AssertAppError(t, err, "CURRENCY_UNKNOWN")
	})

	t.Run("unknown_template", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		_, err := svc.Add(sess, GroupAddInput{Name: "X", DefaultCurrencyCode: "USD", TemplateID: 999})
		testutil.AssertAppError(t, err, "TEMPLATE_NOT_FOUND")
	})
}

func TestGroupQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newGroupService(db)
	sess := testutil.NewTestSession(t, db)

	other, err := svc.Add(sess, GroupAddInput{Name: "Second", DefaultCurrencyCode: "EUR", TemplateID: 1})
	testutil.AssertNoError(t, err)

	result, err := svc.Query(sess, pagination.PageRequest{})
	testutil.AssertNoError(t, err)

	if len(result.Data) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Data))
	}
	for _, d := range result.Data {
		if d.RoleID != models.RoleOwner {
			t.Errorf("group %d: expected owner role, got %d", d.ID, d.RoleID)
		}
		if d.Role != "owner" {
			t.Errorf("group %d: expected role label owner, got %s", d.ID, d.Role)
		}
		if d.ID == sess.Group.ID && !d.Current {
			t.Error("active group should be marked current")
		}
		if d.ID == other.ID && d.Current {
			t.Error("inactive group should not be marked current")
		}
	}
}

func TestGroupUpdate(t *testing.T) {
	t.Run("owner_updates_active_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		updated, err := svc.Update(sess, sess.Group.ID, GroupUpdateInput{
			Name:                "Renamed",
			DefaultCurrencyCode: "USD",
			DefaultBookID:       sess.Book.ID,
		})
		testutil.AssertNoError(t, err)

		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
		// The session's cached group reflects the change.
		if sess.Group.Name != "Renamed" {
			t.Errorf("session group not refreshed, got %s", sess.Group.Name)
		}
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		visitor := testutil.NewTestSession(t, db)
		testutil.CreateTestRelation(t, db, visitor.User.ID, owner.Group.ID, models.RoleVisitor)

		_, err := svc.Update(visitor, owner.Group.ID, GroupUpdateInput{
			Name:                "Hacked",
			DefaultCurrencyCode: "USD",
			DefaultBookID:       owner.Book.ID,
		})
		testutil.AssertAppError(t, err, "GROUP_AUTH")
	})

	t.Run("default_book_must_be_in_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)
		foreign := testutil.NewTestSession(t, db)

		_, err := svc.Update(sess, sess.Group.ID, GroupUpdateInput{
			Name:                "X",
			DefaultCurrencyCode: "USD",
			DefaultBookID:       foreign.Book.ID,
		})
		testutil.AssertAppError(t, err, "BOOK_NOT_IN_GROUP")
	})

	t.Run("default_book_must_be_enabled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		disabled := testutil.CreateTestBook(t, db, sess.Group.ID)
		db.Model(disabled).Update("enable", false)

		_, err := svc.Update(sess, sess.Group.ID, GroupUpdateInput{
			Name:                "X",
			DefaultCurrencyCode: "USD",
			DefaultBookID:       disabled.ID,
		})
		testutil.AssertAppError(t, err, "BOOK_DISABLED")
	})
}

func TestGroupRemove(t *testing.T) {
	t.Run("cannot_remove_active_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		err := svc.Remove(sess, sess.Group.ID)
		testutil.AssertAppError(t, err, "GROUP_DELETE_ACTIVE")
	})

	t.Run("cannot_remove_last_owned_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		// Switch the session's active group so the owned group is removable
		// in principle. The caller still owns only one group.
		foreign := testutil.CreateTestGroup(t, db, sess.User.ID)
		db.Delete(&models.UserGroupRelation{}, "user_id = ? AND group_id = ?", sess.User.ID, foreign.ID)
		target := sess.Group
		sess.Group = foreign

		err := svc.Remove(sess, target.ID)
		testutil.AssertAppError(t, err, "GROUP_DELETE_LAST")
	})

	t.Run("cannot_remove_group_with_flows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		other := testutil.CreateTestGroup(t, db, sess.User.ID)
		book := testutil.CreateTestBook(t, db, other.ID)
		testutil.CreateTestFlow(t, db, book.ID, other.ID, sess.User.ID, 10)

		err := svc.Remove(sess, other.ID)
		testutil.AssertAppError(t, err, "GROUP_DELETE_HAS_FLOWS")
	})

	t.Run("cascade_deletes_books_and_contents", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		sess := testutil.NewTestSession(t, db)

		other := testutil.CreateTestGroup(t, db, sess.User.ID)
		book := testutil.CreateTestBook(t, db, other.ID)
		testutil.CreateTestCategory(t, db, book.ID, models.CategoryTypeExpense)
		testutil.CreateTestTag(t, db, book.ID)
		testutil.CreateTestPayee(t, db, book.ID)
		testutil.CreateTestAccount(t, db, book.ID, 100)

		err := svc.Remove(sess, other.ID)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Group{}).Where("id = ?", other.ID).Count(&count)
		if count != 0 {
			t.Error("group should be deleted")
		}
		db.Model(&models.Book{}).Where("group_id = ?", other.ID).Count(&count)
		if count != 0 {
			t.Error("books should be deleted")
		}
		db.Model(&models.Category{}).Where("book_id = ?", book.ID).Count(&count)
		if count != 0 {
			t.Error("categories should be deleted")
		}
		db.Model(&models.Account{}).Where("book_id = ?", book.ID).Count(&count)
		if count != 0 {
			t.Error("accounts should be deleted")
		}
		db.Model(&models.UserGroupRelation{}).Where("group_id = ?", other.ID).Count(&count)
		if count != 0 {
			t.Error("relations should be deleted")
		}
	})
}

func TestInviteUser(t *testing.T) {
	t.Run("creates_pending_relation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		target := testutil.CreateTestUser(t, db)

		err := svc.InviteUser(owner, owner.Group.ID, target.Username)
		testutil.AssertNoError(t, err)

		var relation models.UserGroupRelation
		if err := db.Where("user_id = ? AND group_id = ?", target.ID, owner.Group.ID).First(&relation).Error; err != nil {
			t.Fatalf("invited relation should exist: %v", err)
		}
		if relation.Role != models.RoleInvited {
			t.Errorf("expected invited role, got %d", relation.Role)
		}
	})

	t.Run("missing_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)

		err := svc.InviteUser(owner, owner.Group.ID, "nobody-here")
		testutil.AssertAppError(t, err, "INVITE_USER_MISSING")
	})

	t.Run("existing_relation_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		target := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.InviteUser(owner, owner.Group.ID, target.Username))
		err := svc.InviteUser(owner, owner.Group.ID, target.Username)
		testutil.AssertAppError(t, err, "INVITE_EXISTS")
	})

	t.Run("non_owner_cannot_invite", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		member := testutil.NewTestSession(t, db)
		testutil.CreateTestRelation(t, db, member.User.ID, owner.Group.ID, models.RoleMaintainer)
		target := testutil.CreateTestUser(t, db)

		err := svc.InviteUser(member, owner.Group.ID, target.Username)
		testutil.AssertAppError(t, err, "GROUP_AUTH")
	})
}

func TestAgreeInvite(t *testing.T) {
	t.Run("promotes_to_maintainer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		invitee := testutil.NewTestSession(t, db)
		testutil.AssertNoError(t, svc.InviteUser(owner, owner.Group.ID, invitee.User.Username))

		err := svc.AgreeInvite(invitee, owner.Group.ID)
		testutil.AssertNoError(t, err)

		var relation models.UserGroupRelation
		db.Where("user_id = ? AND group_id = ?", invitee.User.ID, owner.Group.ID).First(&relation)
		if relation.Role != models.RoleMaintainer {
			t.Errorf("expected maintainer role after accepting, got %d", relation.Role)
		}
	})

	t.Run("without_invite_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		stranger := testutil.NewTestSession(t, db)

		err := svc.AgreeInvite(stranger, owner.Group.ID)
		testutil.AssertAppError(t, err, "GROUP_AUTH")
	})

	t.Run("member_cannot_agree_again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		invitee := testutil.NewTestSession(t, db)
		testutil.AssertNoError(t, svc.InviteUser(owner, owner.Group.ID, invitee.User.Username))
		testutil.AssertNoError(t, svc.AgreeInvite(invitee, owner.Group.ID))

		err := svc.AgreeInvite(invitee, owner.Group.ID)
		testutil.AssertAppError(t, err, "GROUP_AUTH")
	})
}

func TestRejectInvite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newGroupService(db)
	owner := testutil.NewTestSession(t, db)
	invitee := testutil.NewTestSession(t, db)
	testutil.AssertNoError(t, svc.InviteUser(owner, owner.Group.ID, invitee.User.Username))

	err := svc.RejectInvite(invitee, owner.Group.ID)
	testutil.AssertNoError(t, err)

	var count int64
	db.Model(&models.UserGroupRelation{}).
		Where("user_id = ? AND group_id = ?", invitee.User.ID, owner.Group.ID).Count(&count)
	if count != 0 {
		t.Error("rejected relation should be deleted")
	}
}

func TestRemoveUser(t *testing.T) {
	t.Run("owner_cannot_be_removed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)

		err := svc.RemoveUser(owner, owner.Group.ID, owner.User.ID)
		testutil.AssertAppError(t, err, "REMOVE_OWNER")
	})

	t.Run("removes_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		member := testutil.NewTestSession(t, db)
		testutil.CreateTestRelation(t, db, member.User.ID, owner.Group.ID, models.RoleMaintainer)

		err := svc.RemoveUser(owner, owner.Group.ID, member.User.ID)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.UserGroupRelation{}).
			Where("user_id = ? AND group_id = ?", member.User.ID, owner.Group.ID).Count(&count)
		if count != 0 {
			t.Error("membership should be deleted")
		}
	})

	t.Run("reassigns_defaults_to_owned_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)
		member := testutil.NewTestSession(t, db)
		testutil.CreateTestRelation(t, db, member.User.ID, owner.Group.ID, models.RoleMaintainer)

		// The member made the owner's group their default.
		db.Model(member.User).Updates(map[string]interface{}{
			"default_group_id": owner.Group.ID,
			"default_book_id":  owner.Book.ID,
		})

		err := svc.RemoveUser(owner, owner.Group.ID, member.User.ID)
		testutil.AssertNoError(t, err)

		var user models.User
		db.First(&user, member.User.ID)
		if user.DefaultGroupID == nil || *user.DefaultGroupID != member.Group.ID {
			t.Errorf("defaults should fall back to the member's own group %d", member.Group.ID)
		}
		if user.DefaultBookID == nil || *user.DefaultBookID != member.Book.ID {
			t.Error("default book should fall back to the owned group's default book")
		}
	})

	t.Run("fails_without_owned_fallback", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newGroupService(db)
		owner := testutil.NewTestSession(t, db)

		// A bare user with no owned group, default pointing at the owner's group.
		orphan := testutil.CreateTestUser(t, db)
		testutil.CreateTestRelation(t, db, orphan.ID, owner.Group.ID, models.RoleMaintainer)
		db.Model(orphan).Updates(map[string]interface{}{
			"default_group_id": owner.Group.ID,
			"default_book_id":  owner.Book.ID,
		})

		err := svc.RemoveUser(owner, owner.Group.ID, orphan.ID)
		testutil.AssertAppError(t, err, "NO_OWNED_GROUP")

		// The membership must survive the failed removal.
		var count int64
		db.Model(&models.UserGroupRelation{}).
			Where("user_id = ? AND group_id = ?", orphan.ID, owner.Group.ID).Count(&count)
		if count != 1 {
			t.Error("membership should be kept when removal fails")
		}
	})
}

func TestGetUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newGroupService(db)
	owner := testutil.NewTestSession(t, db)
	invitee := testutil.NewTestSession(t, db)
	testutil.AssertNoError(t, svc.InviteUser(owner, owner.Group.ID, invitee.User.Username))

	users, err := svc.GetUsers(owner, owner.Group.ID)
	testutil.AssertNoError(t, err)

	if len(users) != 2 {
		t.Fatalf("expected 2 members, got %d", len(users))
	}
	roles := map[uint]string{}
	for _, u := range users {
		roles[u.ID] = u.Role
	}
	if roles[owner.User.ID] != "owner" {
		t.Errorf("expected owner label, got %s", roles[owner.User.ID])
	}
	if roles[invitee.User.ID] != "invited" {
		t.Errorf("expected invited label, got %s", roles[invitee.User.ID])
	}

	_, err = svc.GetUsers(invitee, owner.Group.ID)
	testutil.AssertAppError(t, err, "GROUP_AUTH")
}

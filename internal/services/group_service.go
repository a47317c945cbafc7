package services

import (
	"errors"

	"gorm.io/gorm"

	"moneybook/internal/booktpl"
	"moneybook/internal/config"
	"moneybook/internal/currency"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/session"
)

// GroupService handles group and membership business logic.
type GroupService struct {
	db          *gorm.DB
	bookService *BookService
	resolver    *session.Resolver
}

// NewGroupService creates a new GroupService.
func NewGroupService(db *gorm.DB, bookService *BookService, resolver *session.Resolver) *GroupService {
	return &GroupService{db: db, bookService: bookService, resolver: resolver}
}

// GroupAddInput holds the fields for creating a group.
type GroupAddInput struct {
	Name                string
	Notes               string
	DefaultCurrencyCode string
	TemplateID          int
}

// GroupUpdateInput holds the fields for updating a group.
type GroupUpdateInput struct {
	Name                string
	Notes               string
	DefaultCurrencyCode string
	DefaultBookID       uint
}

// GroupDetails is the view of a group for the caller, including their role.
type GroupDetails struct {
	ID                  uint         `json:"id"`
	Name                string       `json:"name"`
	Notes               string       `json:"notes"`
	Enable              bool         `json:"enable"`
	DefaultCurrencyCode string       `json:"default_currency_code"`
	RoleID              models.Role  `json:"role_id"`
	Role                string       `json:"role"`
	Current             bool         `json:"current"`
	DefaultBook         *IDAndName   `json:"default_book,omitempty"`
}

// IDAndName is a minimal entity summary.
type IDAndName struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GroupUserDetails is one member of a group with their resolved role.
type GroupUserDetails struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	NickName string      `json:"nick_name"`
	Role     string      `json:"role"`
	RoleID   models.Role `json:"role_id"`
}

// getGroup loads a group by ID.
func (s *GroupService) getGroup(id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

// relationOf returns the caller's membership in a group, if any.
func (s *GroupService) relationOf(userID, groupID uint) (*models.UserGroupRelation, error) {
	var relation models.UserGroupRelation
	err := s.db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&relation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &relation, nil
}

// checkRole verifies the caller holds the owner role in the group.
func (s *GroupService) checkRole(sess *session.Session, groupID uint) error {
	relation, err := s.relationOf(sess.User.ID, groupID)
	if err != nil {
		return err
	}
	if relation == nil || relation.Role != models.RoleOwner {
		return apperrors.ErrGroupAuth
	}
	return nil
}

// checkInvite verifies the caller holds a pending invitation in the group.
func (s *GroupService) checkInvite(sess *session.Session, groupID uint) (*models.UserGroupRelation, error) {
	relation, err := s.relationOf(sess.User.ID, groupID)
	if err != nil {
		return nil, err
	}
	if relation == nil || relation.Role != models.RoleInvited {
		return nil, apperrors.ErrGroupAuth
	}
	return relation, nil
}

// Query lists the groups the caller belongs to, with their role resolved.
func (s *GroupService) Query(sess *session.Session, page pagination.PageRequest) (*pagination.PageResponse[GroupDetails], error) {
	page.Defaults()

	memberOf := s.db.Model(&models.UserGroupRelation{}).
		Select("group_id").
		Where("user_id = ?", sess.User.ID)

	var totalItems int64
	if err := s.db.Model(&models.Group{}).Where("id IN (?)", memberOf).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var groups []models.Group
	if err := s.db.Where("id IN (?)", memberOf).
		Scopes(pagination.Paginate(page)).Order("id").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	details := make([]GroupDetails, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		relation, err := s.relationOf(sess.User.ID, group.ID)
		if err != nil {
			return nil, err
		}
		if relation == nil {
			continue
		}
		d := GroupDetails{
			ID:                  group.ID,
			Name:                group.Name,
			Notes:               group.Notes,
			Enable:              group.Enable,
			DefaultCurrencyCode: group.DefaultCurrencyCode,
			RoleID:              relation.Role,
			Role:                relation.Role.String(),
			Current:             group.ID == sess.Group.ID,
		}
		if group.DefaultBookID != nil {
			var book models.Book
			if err := s.db.First(&book, *group.DefaultBookID).Error; err == nil {
				d.DefaultBook = &IDAndName{ID: book.ID, Name: book.Name}
			}
		}
		details = append(details, d)
	}

	result := pagination.NewPageResponse(details, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Add creates a group with a template-seeded default book and an owner
// membership for the caller. The number of groups a user may create is capped.
func (s *GroupService) Add(sess *session.Session, input GroupAddInput) (*models.Group, error) {
	var ownedCount int64
	if err := s.db.Model(&models.Group{}).Where("creator_id = ?", sess.User.ID).Count(&ownedCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if ownedCount >= int64(config.Get().MaxGroupsPerUser) {
		return nil, apperrors.ErrGroupMaxCount
	}

	if !currency.Valid(input.DefaultCurrencyCode) {
		return nil, apperrors.ErrCurrencyUnknown
	}

	tpl, ok := booktpl.ByID(input.TemplateID)
	if !ok {
		return nil, apperrors.ErrTemplateNotFound
	}

	group := &models.Group{
		Name:                input.Name,
		Notes:               input.Notes,
		Enable:              true,
		CreatorID:           sess.User.ID,
		DefaultCurrencyCode: input.DefaultCurrencyCode,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		book, err := s.bookService.CreateFromTemplate(tx, group.ID, tpl, group.DefaultCurrencyCode)
		if err != nil {
			return err
		}
		if err := tx.Model(group).Update("default_book_id", book.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		group.DefaultBookID = &book.ID

		relation := &models.UserGroupRelation{UserID: sess.User.ID, GroupID: group.ID, Role: models.RoleOwner}
		if err := tx.Create(relation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// Update changes a group's name, notes, currency and default book. Requires
// the owner role. When the group is the caller's active group, the session's
// cached group reference is refreshed.
func (s *GroupService) Update(sess *session.Session, groupID uint, input GroupUpdateInput) (*models.Group, error) {
	if !currency.Valid(input.DefaultCurrencyCode) {
		return nil, apperrors.ErrCurrencyUnknown
	}

	group, err := s.getGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRole(sess, group.ID); err != nil {
		return nil, err
	}

	var book models.Book
	if err := s.db.First(&book, input.DefaultBookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if book.GroupID != group.ID {
		return nil, apperrors.ErrBookNotInGroup
	}
	if !book.Enable {
		return nil, apperrors.ErrBookDisabled
	}

	if err := s.db.Model(group).Updates(map[string]interface{}{
		"name":                  input.Name,
		"notes":                 input.Notes,
		"default_currency_code": input.DefaultCurrencyCode,
		"default_book_id":       book.ID,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	group.Name = input.Name
	group.Notes = input.Notes
	group.DefaultCurrencyCode = input.DefaultCurrencyCode
	group.DefaultBookID = &book.ID

	// Keep the session's cached group in sync when the active group changed.
	if sess.Group.ID == group.ID {
		*sess.Group = *group
	}

	return group, nil
}

// Remove deletes a group and everything under it. Requires the owner role.
// Forbidden for the caller's active group, when the caller would be left with
// fewer than two owned groups, or when any book still has recorded flows.
func (s *GroupService) Remove(sess *session.Session, groupID uint) error {
	group, err := s.getGroup(groupID)
	if err != nil {
		return err
	}
	if err := s.checkRole(sess, group.ID); err != nil {
		return err
	}
	if group.ID == sess.Group.ID {
		return apperrors.ErrGroupDeleteActive
	}

	// Keep at least one owned group as a fallback target.
	var ownedCount int64
	if err := s.db.Model(&models.UserGroupRelation{}).
		Where("user_id = ? AND role = ?", sess.User.ID, models.RoleOwner).
		Count(&ownedCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if ownedCount <= 1 {
		return apperrors.ErrGroupDeleteLast
	}

	var books []models.Book
	if err := s.db.Where("group_id = ?", group.ID).Find(&books).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, book := range books {
			var flowCount int64
			if err := tx.Model(&models.BalanceFlow{}).Where("book_id = ?", book.ID).Count(&flowCount).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if flowCount > 0 {
				return apperrors.ErrGroupDeleteHasFlows
			}
			if err := removeBookContents(tx, book.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.UserGroupRelation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Group{}, group.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// InviteUser creates a pending membership for the named user. Requires the
// owner role; the target must exist and have no existing relation.
func (s *GroupService) InviteUser(sess *session.Session, groupID uint, username string) error {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInviteUserMissing
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	group, err := s.getGroup(groupID)
	if err != nil {
		return err
	}
	if err := s.checkRole(sess, group.ID); err != nil {
		return err
	}

	existing, err := s.relationOf(user.ID, group.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.ErrInviteExists
	}

	relation := &models.UserGroupRelation{UserID: user.ID, GroupID: group.ID, Role: models.RoleInvited}
	if err := s.db.Create(relation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RemoveUser removes a member from the group. Requires the owner role.
// Owners cannot be removed. If the group was the member's default group,
// their defaults are reassigned to the first group they own; if they own
// none, the removal fails.
func (s *GroupService) RemoveUser(sess *session.Session, groupID, userID uint) error {
	group, err := s.getGroup(groupID)
	if err != nil {
		return err
	}
	if err := s.checkRole(sess, group.ID); err != nil {
		return err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrItemNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	relation, err := s.relationOf(user.ID, group.ID)
	if err != nil {
		return err
	}
	if relation == nil {
		return apperrors.ErrItemNotFound
	}
	if relation.Role == models.RoleOwner {
		return apperrors.ErrRemoveOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if user.DefaultGroupID != nil && *user.DefaultGroupID == group.ID {
			// Fall back to the first group the removed user owns.
			var owned models.UserGroupRelation
			err := tx.Where("user_id = ? AND role = ?", user.ID, models.RoleOwner).
				Order("id").First(&owned).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrNoOwnedGroup
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			var fallback models.Group
			if err := tx.First(&fallback, owned.GroupID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Model(&user).Updates(map[string]interface{}{
				"default_group_id": fallback.ID,
				"default_book_id":  fallback.DefaultBookID,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			// The removed user may hold a live session pointing at this group.
			s.resolver.ForgetUser(user.ID)
		}
		if err := tx.Delete(relation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// AgreeInvite accepts the caller's pending invitation.
func (s *GroupService) AgreeInvite(sess *session.Session, groupID uint) error {
	group, err := s.getGroup(groupID)
	if err != nil {
		return err
	}
	relation, err := s.checkInvite(sess, group.ID)
	if err != nil {
		return err
	}
	if err := s.db.Model(relation).Update("role", models.RoleMaintainer).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RejectInvite declines the caller's pending invitation, deleting it.
func (s *GroupService) RejectInvite(sess *session.Session, groupID uint) error {
	group, err := s.getGroup(groupID)
	if err != nil {
		return err
	}
	relation, err := s.checkInvite(sess, group.ID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(relation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUsers lists the group's members with resolved role labels. Requires the
// owner role.
func (s *GroupService) GetUsers(sess *session.Session, groupID uint) ([]GroupUserDetails, error) {
	group, err := s.getGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRole(sess, group.ID); err != nil {
		return nil, err
	}

	var relations []models.UserGroupRelation
	if err := s.db.Where("group_id = ?", group.ID).Order("id").Find(&relations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	users := make([]GroupUserDetails, 0, len(relations))
	for _, relation := range relations {
		var user models.User
		if err := s.db.First(&user, relation.UserID).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		users = append(users, GroupUserDetails{
			ID:       user.ID,
			Username: user.Username,
			NickName: user.NickName,
			Role:     relation.Role.String(),
			RoleID:   relation.Role,
		})
	}
	return users, nil
}

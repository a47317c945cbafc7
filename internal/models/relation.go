package models

// Role is a membership's permission level within a group.
type Role int

const (
	RoleOwner      Role = 1
	RoleMaintainer Role = 2
	RoleVisitor    Role = 3
	RoleInvited    Role = 4
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= RoleOwner && r <= RoleInvited
}

// String returns the display label for the role.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleMaintainer:
		return "maintainer"
	case RoleVisitor:
		return "visitor"
	case RoleInvited:
		return "invited"
	}
	return "unknown"
}

// UserGroupRelation joins a user to a group with a role.
// The (user, group) pair is unique regardless of role.
type UserGroupRelation struct {
	Base
	UserID  uint `gorm:"not null;uniqueIndex:uk_user_group" json:"user_id"`
	GroupID uint `gorm:"not null;uniqueIndex:uk_user_group" json:"group_id"`
	Role    Role `gorm:"not null" json:"role"`
}

// TableName maps UserGroupRelation to its legacy table name.
func (UserGroupRelation) TableName() string { return "t_user_user_group_relation" }

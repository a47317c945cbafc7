package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// GroupHandler handles group and membership requests.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest represents the request payload for creating a group.
type CreateGroupRequest struct {
	Name                string `json:"name" binding:"required,min=1,max=64"`
	Notes               string `json:"notes" binding:"max=1024"`
	DefaultCurrencyCode string `json:"default_currency_code" binding:"required,iso4217"`
	TemplateID          int    `json:"template_id" binding:"required,min=1"`
}

// UpdateGroupRequest represents the request payload for updating a group.
type UpdateGroupRequest struct {
	Name                string `json:"name" binding:"required,min=1,max=64"`
	Notes               string `json:"notes" binding:"max=1024"`
	DefaultCurrencyCode string `json:"default_currency_code" binding:"required,iso4217"`
	DefaultBookID       uint   `json:"default_book_id" binding:"required"`
}

// InviteUserRequest represents the request payload for inviting a user.
type InviteUserRequest struct {
	Username string `json:"username" binding:"required"`
}

// GetGroups lists the caller's groups
// @Summary     List groups
// @Description Get a paginated list of groups the authenticated user belongs to
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.GroupDetails] "Paginated groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups [get]
func (h *GroupHandler) GetGroups(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.groupService.Query(sess, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateGroup creates a group
// @Summary     Create a group
// @Description Create a new group with a template-seeded default book
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} services.GroupDetails "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.Add(sess, services.GroupAddInput{
		Name:                req.Name,
		Notes:               req.Notes,
		DefaultCurrencyCode: req.DefaultCurrencyCode,
		TemplateID:          req.TemplateID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// UpdateGroup updates a group
// @Summary     Update a group
// @Description Update a group's name, notes, currency and default book. Requires the owner role.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Param       request body UpdateGroupRequest true "Updated group details"
// @Success     200 {object} services.GroupDetails "Updated group"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the group owner"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.Update(sess, groupID, services.GroupUpdateInput{
		Name:                req.Name,
		Notes:               req.Notes,
		DefaultCurrencyCode: req.DefaultCurrencyCode,
		DefaultBookID:       req.DefaultBookID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// DeleteGroup deletes a group
// @Summary     Delete a group
// @Description Delete a group and everything under it. Requires the owner role.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Success     200 {object} map[string]string "Group deleted"
// @Failure     400 {object} ErrorResponse "Deletion not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the group owner"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.Remove(sess, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// InviteUser invites a user into a group
// @Summary     Invite a user
// @Description Invite a user into the group by username. Requires the owner role.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Param       request body InviteUserRequest true "Username to invite"
// @Success     200 {object} map[string]string "User invited"
// @Failure     400 {object} ErrorResponse "Invalid input or user already related"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the group owner"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/invite [post]
func (h *GroupHandler) InviteUser(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.groupService.InviteUser(sess, groupID, req.Username); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user invited"})
}

// RemoveUser removes a member from a group
// @Summary     Remove a member
// @Description Remove a member from the group. Requires the owner role; owners cannot be removed.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int true "Group ID"
// @Param       user_id path int true "User ID"
// @Success     200 {object} map[string]string "User removed"
// @Failure     400 {object} ErrorResponse "Removal not allowed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the group owner"
// @Failure     404 {object} ErrorResponse "Group or user not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/users/{user_id} [delete]
func (h *GroupHandler) RemoveUser(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, err := parsePathID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.RemoveUser(sess, groupID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}

// AgreeInvite accepts a pending invitation
// @Summary     Accept an invitation
// @Description Accept the caller's pending invitation to the group
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Success     200 {object} map[string]string "Invitation accepted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "No pending invitation"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/agree [post]
func (h *GroupHandler) AgreeInvite(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.AgreeInvite(sess, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invitation accepted"})
}

// RejectInvite declines a pending invitation
// @Summary     Reject an invitation
// @Description Decline the caller's pending invitation to the group
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Success     200 {object} map[string]string "Invitation rejected"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "No pending invitation"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/reject [post]
func (h *GroupHandler) RejectInvite(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.RejectInvite(sess, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invitation rejected"})
}

// GetGroupUsers lists a group's members
// @Summary     List group members
// @Description List the group's members with their roles. Requires the owner role.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Group ID"
// @Success     200 {object} map[string][]services.GroupUserDetails "Group members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the group owner"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/users [get]
func (h *GroupHandler) GetGroupUsers(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	users, err := h.groupService.GetUsers(sess, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

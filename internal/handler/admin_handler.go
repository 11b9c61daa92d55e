package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studyshare/studyshare-api/internal/models"
	"github.com/studyshare/studyshare-api/internal/service"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
	"github.com/studyshare/studyshare-api/pkg/response"
)

type moderationService interface {
	ListPending(ctx context.Context) ([]models.ResourceView, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

type adminUserService interface {
	ListUsers(ctx context.Context, actorID string, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	UpdateRole(ctx context.Context, id string, req service.UpdateRoleRequest) error
}

// AdminHandler manages moderation and user administration endpoints.
type AdminHandler struct {
	moderation moderationService
	users      adminUserService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(moderation moderationService, users adminUserService) *AdminHandler {
	return &AdminHandler{moderation: moderation, users: users}
}

// PendingResources godoc
// @Summary List resources pending approval
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/pending-resources [get]
func (h *AdminHandler) PendingResources(c *gin.Context) {
	views, err := h.moderation.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}

// Approve godoc
// @Summary Approve a pending resource
// @Tags Admin
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/approve/{id} [put]
func (h *AdminHandler) Approve(c *gin.Context) {
	if err := h.moderation.Approve(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "Resource approved successfully"}, nil)
}

// Reject godoc
// @Summary Reject and remove a resource
// @Tags Admin
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reject/{id} [delete]
func (h *AdminHandler) Reject(c *gin.Context) {
	if err := h.moderation.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "Resource rejected and removed"}, nil)
}

// ListUsers godoc
// @Summary List all users except the caller
// @Tags Admin
// @Produce json
// @Param search query string false "Substring match on email or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.UserFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	users, pagination, err := h.users.ListUsers(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// UpdateUserRole godoc
// @Summary Update a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/update-role [put]
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid role payload"))
		return
	}

	if err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "User role updated successfully."}, nil)
}

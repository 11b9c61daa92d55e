package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
	"github.com/studyshare/studyshare-api/pkg/response"
)

type bookmarkService interface {
	ToggleBookmark(ctx context.Context, userID, resourceID string) (*models.BookmarkToggle, error)
	ListBookmarks(ctx context.Context, userID string) ([]models.ResourceView, error)
}

// UserHandler manages the caller's bookmark endpoints.
type UserHandler struct {
	service bookmarkService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc bookmarkService) *UserHandler {
	return &UserHandler{service: svc}
}

// ToggleBookmark godoc
// @Summary Toggle a bookmark for a resource
// @Tags Users
// @Produce json
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/bookmarks/{resourceId} [put]
func (h *UserHandler) ToggleBookmark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.ToggleBookmark(c.Request.Context(), claims.UserID, c.Param("resourceId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// ListBookmarks godoc
// @Summary List the caller's bookmarked resources
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/bookmarks [get]
func (h *UserHandler) ListBookmarks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.ListBookmarks(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}

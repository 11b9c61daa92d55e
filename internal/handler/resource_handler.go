package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyshare/studyshare-api/internal/models"
	"github.com/studyshare/studyshare-api/internal/service"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
	"github.com/studyshare/studyshare-api/pkg/response"
)

type resourceService interface {
	Upload(ctx context.Context, req service.CreateResourceRequest, upload service.ResourceUpload, uploaderID string) (*models.Resource, error)
	ListPublic(ctx context.Context, search string) ([]models.ResourceView, bool, error)
	Get(ctx context.Context, id string) (*models.Resource, error)
	ListMine(ctx context.Context, uploaderID string) ([]models.Resource, error)
	Edit(ctx context.Context, id string, req service.UpdateResourceRequest, actorID string) (*models.Resource, error)
	Delete(ctx context.Context, id, actorID string) error
	Rate(ctx context.Context, id, userID string, req service.RateResourceRequest) (*models.RatingSummary, error)
}

type commentService interface {
	Add(ctx context.Context, resourceID, authorID string, req service.AddCommentRequest) (*models.CommentView, error)
	ListForResource(ctx context.Context, resourceID string) ([]models.CommentView, error)
}

type cacheObserver interface {
	ObserveListingCache(hit bool)
}

// ResourceHandler manages resource, comment and rating HTTP endpoints.
type ResourceHandler struct {
	resources resourceService
	comments  commentService
	metrics   cacheObserver
}

// NewResourceHandler constructs the handler.
func NewResourceHandler(resources resourceService, comments commentService, metrics cacheObserver) *ResourceHandler {
	return &ResourceHandler{resources: resources, comments: comments, metrics: metrics}
}

// Upload godoc
// @Summary Upload a new resource
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subject formData string true "Subject"
// @Param semester formData string true "Semester"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources/upload [post]
func (h *ResourceHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "please upload a file"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}

	upload := service.ResourceUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	resource, err := h.resources.Upload(c.Request.Context(), req, upload, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resource)
}

// List godoc
// @Summary List approved resources
// @Tags Resources
// @Produce json
// @Param search query string false "Substring match on title or subject"
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	views, hit, err := h.resources.ListPublic(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveListingCache(hit)
	}

	response.JSON(c, http.StatusOK, views, nil, map[string]interface{}{"cache_hit": hit})
}

// Get godoc
// @Summary Get a resource by ID
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resource, nil)
}

// ListMine godoc
// @Summary List the caller's resources in any state
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources/my-resources [get]
func (h *ResourceHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	resources, err := h.resources.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resources, nil)
}

// Update godoc
// @Summary Edit an owned resource, sending it back to review
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body service.UpdateResourceRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [put]
func (h *ResourceHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource payload"))
		return
	}

	resource, err := h.resources.Edit(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resource, nil)
}

// Delete godoc
// @Summary Delete an owned resource and its stored file
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.resources.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "Resource removed successfully"}, nil)
}

// Rate godoc
// @Summary Rate a resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body service.RateResourceRequest true "Rating value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id}/ratings [post]
func (h *ResourceHandler) Rate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rating payload"))
		return
	}

	summary, err := h.resources.Rate(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// AddComment godoc
// @Summary Add a comment to a resource
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body service.AddCommentRequest true "Comment message"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id}/comments [post]
func (h *ResourceHandler) AddComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "message is required"))
		return
	}

	view, err := h.comments.Add(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, view)
}

// ListComments godoc
// @Summary List a resource's comments, newest first
// @Tags Comments
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id}/comments [get]
func (h *ResourceHandler) ListComments(c *gin.Context) {
	views, err := h.comments.ListForResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}

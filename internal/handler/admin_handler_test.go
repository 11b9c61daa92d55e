package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyshare/studyshare-api/internal/middleware"
	"github.com/studyshare/studyshare-api/internal/models"
	"github.com/studyshare/studyshare-api/internal/service"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type moderationServiceMock struct {
	pending    []models.ResourceView
	approveErr error
	rejectErr  error
	approved   []string
	rejected   []string
}

func (m *moderationServiceMock) ListPending(ctx context.Context) ([]models.ResourceView, error) {
	return m.pending, nil
}

func (m *moderationServiceMock) Approve(ctx context.Context, id string) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	m.approved = append(m.approved, id)
	return nil
}

func (m *moderationServiceMock) Reject(ctx context.Context, id string) error {
	if m.rejectErr != nil {
		return m.rejectErr
	}
	m.rejected = append(m.rejected, id)
	return nil
}

type adminUserServiceMock struct {
	users      []models.User
	lastActor  string
	lastFilter models.UserFilter
	updateErr  error
	updated    map[string]models.UserRole
}

func (m *adminUserServiceMock) ListUsers(ctx context.Context, actorID string, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	m.lastActor = actorID
	m.lastFilter = filter
	return m.users, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.users)}, nil
}

func (m *adminUserServiceMock) UpdateRole(ctx context.Context, id string, req service.UpdateRoleRequest) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updated == nil {
		m.updated = make(map[string]models.UserRole)
	}
	m.updated[id] = req.Role
	return nil
}

func asAdmin(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
}

func TestAdminHandlerApprove(t *testing.T) {
	moderation := &moderationServiceMock{}
	handler := NewAdminHandler(moderation, &adminUserServiceMock{})

	c, w := testContext(t, http.MethodPut, "/admin/approve/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asAdmin(c)

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"r1"}, moderation.approved)
}

func TestAdminHandlerApproveMissing(t *testing.T) {
	moderation := &moderationServiceMock{approveErr: appErrors.Clone(appErrors.ErrNotFound, "resource not found")}
	handler := NewAdminHandler(moderation, &adminUserServiceMock{})

	c, w := testContext(t, http.MethodPut, "/admin/approve/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	asAdmin(c)

	handler.Approve(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlerReject(t *testing.T) {
	moderation := &moderationServiceMock{}
	handler := NewAdminHandler(moderation, &adminUserServiceMock{})

	c, w := testContext(t, http.MethodDelete, "/admin/reject/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asAdmin(c)

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"r1"}, moderation.rejected)
}

func TestAdminHandlerListUsersPassesCaller(t *testing.T) {
	users := &adminUserServiceMock{users: []models.User{{ID: "u1"}}}
	handler := NewAdminHandler(&moderationServiceMock{}, users)

	c, w := testContext(t, http.MethodGet, "/admin/users?search=ada&page=2&limit=10", nil)
	asAdmin(c)

	handler.ListUsers(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", users.lastActor)
	assert.Equal(t, "ada", users.lastFilter.Search)
	assert.Equal(t, 2, users.lastFilter.Page)
	assert.Equal(t, 10, users.lastFilter.PageSize)
}

func TestAdminHandlerUpdateRole(t *testing.T) {
	users := &adminUserServiceMock{}
	handler := NewAdminHandler(&moderationServiceMock{}, users)

	c, w := testContext(t, http.MethodPut, "/admin/users/u1/update-role", bytes.NewBufferString(`{"role":"FACULTY"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	asAdmin(c)

	handler.UpdateUserRole(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleFaculty, users.updated["u1"])
}

func TestAdminHandlerUpdateRoleInvalidBody(t *testing.T) {
	handler := NewAdminHandler(&moderationServiceMock{}, &adminUserServiceMock{})

	c, w := testContext(t, http.MethodPut, "/admin/users/u1/update-role", bytes.NewBufferString(`{"role":`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	asAdmin(c)

	handler.UpdateUserRole(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

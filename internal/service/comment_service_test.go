package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type mockCommentStore struct {
	comments  map[string]*models.Comment
	views     map[string]*models.CommentView
	byRes     map[string][]models.CommentView
	createErr error
	seq       int
}

func newMockCommentStore() *mockCommentStore {
	return &mockCommentStore{
		comments: make(map[string]*models.Comment),
		views:    make(map[string]*models.CommentView),
		byRes:    make(map[string][]models.CommentView),
	}
}

func (m *mockCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	comment.ID = "c" + string(rune('0'+m.seq))
	m.comments[comment.ID] = comment
	view := models.CommentView{Comment: *comment, AuthorName: "Ada"}
	m.views[comment.ID] = &view
	m.byRes[comment.ResourceID] = append([]models.CommentView{view}, m.byRes[comment.ResourceID]...)
	return nil
}

func (m *mockCommentStore) FindViewByID(ctx context.Context, id string) (*models.CommentView, error) {
	view, ok := m.views[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return view, nil
}

func (m *mockCommentStore) ListByResource(ctx context.Context, resourceID string) ([]models.CommentView, error) {
	return m.byRes[resourceID], nil
}

func newCommentService(store *mockCommentStore, resources *mockResourceStore) *CommentService {
	return NewCommentService(store, resources, validator.New(), zap.NewNop())
}

func TestAddCommentReturnsAuthorView(t *testing.T) {
	store := newMockCommentStore()
	resources := newMockResourceStore()
	resources.resources["r1"] = &models.Resource{ID: "r1", Approved: true}
	svc := newCommentService(store, resources)

	view, err := svc.Add(context.Background(), "r1", "u1", AddCommentRequest{Message: "very helpful"})
	require.NoError(t, err)
	assert.Equal(t, "very helpful", view.Message)
	assert.Equal(t, "u1", view.AuthorID)
	assert.Equal(t, "Ada", view.AuthorName)
}

func TestAddCommentRequiresMessage(t *testing.T) {
	resources := newMockResourceStore()
	resources.resources["r1"] = &models.Resource{ID: "r1"}
	svc := newCommentService(newMockCommentStore(), resources)

	_, err := svc.Add(context.Background(), "r1", "u1", AddCommentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddCommentMissingResource(t *testing.T) {
	svc := newCommentService(newMockCommentStore(), newMockResourceStore())

	_, err := svc.Add(context.Background(), "ghost", "u1", AddCommentRequest{Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListCommentsNewestFirst(t *testing.T) {
	store := newMockCommentStore()
	resources := newMockResourceStore()
	resources.resources["r1"] = &models.Resource{ID: "r1"}
	svc := newCommentService(store, resources)

	_, err := svc.Add(context.Background(), "r1", "u1", AddCommentRequest{Message: "first"})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "r1", "u2", AddCommentRequest{Message: "second"})
	require.NoError(t, err)

	views, err := svc.ListForResource(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "second", views[0].Message)
	assert.Equal(t, "first", views[1].Message)
}

func TestListCommentsMissingResource(t *testing.T) {
	svc := newCommentService(newMockCommentStore(), newMockResourceStore())

	_, err := svc.ListForResource(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
)

type mockDrafts struct {
	mock.Mock
}

func (m *mockDrafts) Get(ctx context.Context, userID int64, pageKey string) (*model.Draft, error) {
	args := m.Called(ctx, userID, pageKey)
	draft, _ := args.Get(0).(*model.Draft)
	return draft, args.Error(1)
}

func (m *mockDrafts) Upsert(ctx context.Context, d *model.Draft) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDrafts) Delete(ctx context.Context, userID int64, pageKey string) error {
	return m.Called(ctx, userID, pageKey).Error(0)
}

func newDraftRouter(drafts *mockDrafts) chi.Router {
	sessions := middleware.NewSessionMiddleware(testUsers, testCookie)
	h := NewDraftHandler(drafts)

	r := chi.NewRouter()
	r.With(sessions.RequireSession).Route("/pages/{key}/draft", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Save)
		r.Delete("/", h.Delete)
	})
	return r
}

func TestDraftHandler_SaveAndGet(t *testing.T) {
	drafts := new(mockDrafts)
	drafts.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Draft) bool {
		return d.UserID == 1 && d.PageKey == "home" && strings.Contains(string(d.Sections), "hero")
	})).Return(nil).Once()
	drafts.On("Get", mock.Anything, int64(1), "home").
		Return(&model.Draft{UserID: 1, PageKey: "home", Sections: json.RawMessage(`[{"type":"hero"}]`)}, nil).Once()
	r := newDraftRouter(drafts)

	rec := call(r, http.MethodPut, "/pages/Home/draft", "admin-sid", []byte(`{"sections":[{"type":"hero"}]}`), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(r, http.MethodGet, "/pages/home/draft", "admin-sid", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Draft
	decodeBody(t, rec, &got)
	assert.JSONEq(t, `[{"type":"hero"}]`, string(got.Sections))

	drafts.AssertExpectations(t)
}

func TestDraftHandler_Rejects(t *testing.T) {
	drafts := new(mockDrafts)
	r := newDraftRouter(drafts)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"scalar sections", "/pages/home/draft", `{"sections":"hero"}`},
		{"missing sections", "/pages/home/draft", `{}`},
		{"bad key", "/pages/home_page/draft", `{"sections":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(r, http.MethodPut, tt.target, "admin-sid", []byte(tt.body), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	drafts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDraftHandler_Missing(t *testing.T) {
	drafts := new(mockDrafts)
	drafts.On("Get", mock.Anything, int64(1), "about").Return(nil, model.ErrNotFound)
	r := newDraftRouter(drafts)

	rec := call(r, http.MethodGet, "/pages/about/draft", "admin-sid", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftHandler_Delete(t *testing.T) {
	drafts := new(mockDrafts)
	drafts.On("Delete", mock.Anything, int64(1), "about").Return(nil).Once()
	r := newDraftRouter(drafts)

	rec := call(r, http.MethodDelete, "/pages/about/draft", "admin-sid", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	drafts.AssertExpectations(t)
}

func TestValidPageKey(t *testing.T) {
	assert.True(t, validPageKey("home"))
	assert.True(t, validPageKey("about-us-2"))
	assert.False(t, validPageKey(""))
	assert.False(t, validPageKey("about us"))
	assert.False(t, validPageKey(strings.Repeat("a", 65)))
}

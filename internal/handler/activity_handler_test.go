package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/model"
)

type mockActivity struct {
	mock.Mock
}

func (m *mockActivity) Query(ctx context.Context, query model.ActivityQuery) ([]model.Activity, model.Meta, error) {
	args := m.Called(ctx, query)
	items, _ := args.Get(0).([]model.Activity)
	return items, args.Get(1).(model.Meta), args.Error(2)
}

func TestActivityHandler_List(t *testing.T) {
	activity := new(mockActivity)
	activity.On("Query", mock.Anything, model.ActivityQuery{
		Resource: "programs", ActorID: 4, Status: "failure", Page: 2, Limit: 50,
	}).Return([]model.Activity{{Resource: "programs", Action: "delete", RecordID: "8", Status: "failure"}},
		model.Meta{Page: 2, Limit: 50, Total: 51, TotalPages: 2}, nil).Once()

	rec := httptest.NewRecorder()
	NewActivityHandler(activity).List(rec, httptest.NewRequest(http.MethodGet,
		"/admin/activity?resource=programs&actor_id=4&status=failure&page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Activity
	resp := decodeBody(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "delete", items[0].Action)
	assert.Equal(t, 51, resp.Meta.Total)
	activity.AssertExpectations(t)
}

func TestActivityHandler_StoreFailure(t *testing.T) {
	activity := new(mockActivity)
	activity.On("Query", mock.Anything, mock.Anything).Return(nil, model.Meta{}, errors.New("db down"))

	rec := httptest.NewRecorder()
	NewActivityHandler(activity).List(rec, httptest.NewRequest(http.MethodGet, "/admin/activity", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/model"
)

func TestDecodeList_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		field     string
		wantLen   int
		wantCount int
		counted   bool
	}{
		{name: "bare array", body: `[{"id":1},{"id":2}]`, wantLen: 2, wantCount: 2},
		{name: "results and count", body: `{"results":[{"id":1}],"count":41}`, wantLen: 1, wantCount: 41, counted: true},
		{name: "named field with total_count", body: `{"users":[{"id":1},{"id":2}],"total_count":45}`, field: "users", wantLen: 2, wantCount: 45, counted: true},
		{name: "named field with count", body: `{"events":[{"id":1}],"count":3}`, field: "events", wantLen: 1, wantCount: 3, counted: true},
		{name: "no count falls back to length", body: `{"results":[{"id":1},{"id":2},{"id":3}]}`, wantLen: 3, wantCount: 3},
		{name: "empty body", body: ``, wantLen: 0, wantCount: 0},
		{name: "null list", body: `{"results":null,"count":0}`, wantLen: 0, wantCount: 0, counted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			list, err := DecodeList[model.Mentor]([]byte(tt.body), tt.field)
			require.NoError(t, err)
			assert.Len(t, list.Items, tt.wantLen)
			assert.NotNil(t, list.Items)
			assert.Equal(t, tt.wantCount, list.TotalCount)
			assert.Equal(t, tt.counted, list.Counted)
		})
	}
}

func TestDecodeList_UnknownEnvelope(t *testing.T) {
	t.Parallel()

	_, err := DecodeList[model.Mentor]([]byte(`{"something":[]}`), "mentors")
	require.Error(t, err)

	_, err = DecodeList[model.Mentor]([]byte(`"text"`), "")
	require.Error(t, err)
}

func TestDecodeList_DecimalStrings(t *testing.T) {
	t.Parallel()

	list, err := DecodeList[model.Mentor]([]byte(`[{"id":4,"name":"Grace","hourly_rate":"50.00","is_active":true}]`), "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "50.00", list.Items[0].HourlyRate.String())
}

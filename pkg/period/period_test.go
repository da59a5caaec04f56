package period

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustISO(t *testing.T, start, end string) Period {
	t.Helper()
	p, err := FromISO(start, end, "")
	require.NoError(t, err)
	return p
}

func TestNew_RejectsReversedRange(t *testing.T) {
	_, err := New(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNew_TruncatesToDate(t *testing.T) {
	p, err := New(time.Date(2026, 1, 1, 13, 5, 0, 0, time.UTC), time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC), "x")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Start.Hour())
	assert.Equal(t, 2, p.Days())
}

func TestPrevious(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  string
		wantEnd    string
	}{
		{"single month", "2026-03-01", "2026-03-31", "2026-02-01", "2026-02-28"},
		{"quarter", "2026-01-01", "2026-03-31", "2025-10-01", "2025-12-31"},
		{"year", "2025-01-01", "2025-12-31", "2024-01-01", "2024-12-31"},
		{"open range", "2025-07-01", "2026-01-15", "2024-12-14", "2025-06-30"},
		{"seven days", "2026-01-09", "2026-01-15", "2026-01-02", "2026-01-08"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := mustISO(t, tt.start, tt.end).Previous()
			assert.Equal(t, tt.wantStart, prev.StartISO())
			assert.Equal(t, tt.wantEnd, prev.EndISO())
		})
	}
}

func TestPrevious_SameLength(t *testing.T) {
	p := mustISO(t, "2025-07-01", "2026-01-15")
	assert.Equal(t, p.Days(), p.Previous().Days())
}

func TestContains(t *testing.T) {
	p := mustISO(t, "2026-01-01", "2026-01-31")
	assert.True(t, p.Contains(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMarshalJSON(t *testing.T) {
	p, err := FromISO("2026-01-01", "2026-01-31", "enero 2026")
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2026-01-01","end":"2026-01-31","label":"enero 2026"}`, string(data))
}

func TestAmbiguousError_Message(t *testing.T) {
	err := &AmbiguousError{
		Phrase: "desde octubre",
		Candidates: []Period{
			mustISO(t, "2026-10-01", "2026-11-19"),
			mustISO(t, "2025-10-01", "2026-11-19"),
		},
	}
	assert.Equal(t, `ambiguous period "desde octubre": 2026-10-01..2026-11-19 or 2025-10-01..2026-11-19`, err.Error())
}

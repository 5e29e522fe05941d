package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/platform/errs"
)

var requestTime = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func TestNewRequest(t *testing.T) {
	r, err := NewRequest("req-1", "ap1", "  New York, NY ", "u-emma", requestTime)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, r.Status)
	assert.Equal(t, "New York, NY", r.Location)
	assert.Empty(t, r.AgentID)

	_, err = NewRequest("req-2", "ap1", " ", "u-emma", requestTime)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewRequest("req-3", "", "Miami, FL", "u-emma", requestTime)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewRequest("req-4", "ap1", strings.Repeat("x", 256), "u-emma", requestTime)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestRequestTransition(t *testing.T) {
	testCases := []struct {
		from RequestStatus
		to   RequestStatus
		ok   bool
	}{
		{RequestPending, RequestAccepted, true},
		{RequestPending, RequestRejected, true},
		{RequestPending, RequestCompleted, false},
		{RequestAccepted, RequestCompleted, true},
		{RequestAccepted, RequestRejected, false},
		{RequestAccepted, RequestAccepted, false},
		{RequestRejected, RequestAccepted, false},
		{RequestCompleted, RequestPending, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			r := &Request{ID: "req-1", Status: tc.from, UpdatedAt: requestTime}
			later := requestTime.Add(time.Hour)

			err := r.Transition(tc.to, later)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, r.Status)
				assert.Equal(t, later, r.UpdatedAt)
				return
			}
			assert.ErrorIs(t, err, errs.ErrInvalidTransition)
			assert.Equal(t, tc.from, r.Status)
			assert.Equal(t, requestTime, r.UpdatedAt)
		})
	}
}

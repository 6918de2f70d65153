package challengedomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusDeclined, false},
		{StatusCompleted, StatusAccepted, true},
		{StatusDeclined, StatusAccepted, false},
		{StatusExpired, StatusAccepted, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestExpired(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(DefaultExpiry)

	assert.False(t, Expired(StatusPending, expires, created))
	assert.False(t, Expired(StatusPending, expires, expires), "boundary is still open")
	assert.True(t, Expired(StatusPending, expires, expires.Add(time.Nanosecond)))
	assert.False(t, Expired(StatusAccepted, expires, expires.Add(time.Hour)), "only pending challenges lapse")

	assert.Equal(t, StatusExpired, EffectiveStatus(StatusPending, expires, expires.Add(time.Second)))
	assert.Equal(t, StatusAccepted, EffectiveStatus(StatusAccepted, expires, expires.Add(time.Second)))
}

func TestResponseTarget(t *testing.T) {
	s, ok := ResponseAccept.Target()
	assert.True(t, ok)
	assert.Equal(t, StatusAccepted, s)

	s, ok = ResponseCancel.Target()
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, s)

	_, ok = Response("maybe").Target()
	assert.False(t, ok)
}

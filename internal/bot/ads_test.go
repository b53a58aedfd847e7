package bot

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdThrottleRequiresIntervalAndActivity(t *testing.T) {
	mockClock := quartz.NewMock(t)
	a := newAdThrottle(mockClock, 10*time.Minute, 3, []string{"play !deal"})

	// Plenty of chatter, but the interval has not elapsed.
	for i := 0; i < 5; i++ {
		_, ok := a.observe("#demo")
		assert.False(t, ok)
	}

	// Interval elapsed, but the channel has gone quiet.
	mockClock.Advance(10 * time.Minute)
	a.channels["#demo"].seen = 0

	_, ok := a.observe("#demo")
	assert.False(t, ok, "one message is below the activity floor")

	a.observe("#demo")
	msg, ok := a.observe("#demo")
	require.True(t, ok)
	assert.Equal(t, "play !deal", msg)
}

func TestAdThrottleRotatesAndResets(t *testing.T) {
	mockClock := quartz.NewMock(t)
	a := newAdThrottle(mockClock, time.Minute, 2, []string{"first", "second"})

	a.observe("#demo")
	mockClock.Advance(time.Minute)
	msg, ok := a.observe("#demo")
	require.True(t, ok)
	assert.Equal(t, "first", msg)

	// Counter and interval restart after an ad.
	_, ok = a.observe("#demo")
	assert.False(t, ok)

	mockClock.Advance(time.Minute)
	msg, ok = a.observe("#demo")
	require.True(t, ok)
	assert.Equal(t, "second", msg)
}

func TestAdThrottleDisabledWithoutMessages(t *testing.T) {
	mockClock := quartz.NewMock(t)
	a := newAdThrottle(mockClock, 0, 0, nil)

	_, ok := a.observe("#demo")
	assert.False(t, ok)
}

func TestAdThrottleChannelsIndependent(t *testing.T) {
	mockClock := quartz.NewMock(t)
	a := newAdThrottle(mockClock, time.Minute, 2, []string{"ad"})

	a.observe("#busy")
	mockClock.Advance(time.Minute)
	_, ok := a.observe("#busy")
	assert.True(t, ok)

	// The other channel only just appeared; its interval starts now.
	_, ok = a.observe("#quiet")
	assert.False(t, ok)
	_, ok = a.observe("#quiet")
	assert.False(t, ok)
}

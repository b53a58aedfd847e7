package bot

import (
	"time"

	"github.com/coder/quartz"
)

// adThrottle decides when to drop a promotional message into a channel.
// An ad goes out only when the channel has been quiet of ads for the
// configured interval AND enough chat messages have passed, so a dead
// channel is never spammed. Messages rotate in order.
type adThrottle struct {
	clock       quartz.Clock
	interval    time.Duration
	minMessages int
	messages    []string

	channels map[string]*adState
}

type adState struct {
	lastAd  time.Time
	seen    int
	nextIdx int
}

func newAdThrottle(clock quartz.Clock, interval time.Duration, minMessages int, messages []string) *adThrottle {
	return &adThrottle{
		clock:       clock,
		interval:    interval,
		minMessages: minMessages,
		messages:    messages,
		channels:    make(map[string]*adState),
	}
}

// observe records one chat message in a channel and returns an ad when one
// is due. Caller holds the bot mutex.
func (a *adThrottle) observe(channel string) (string, bool) {
	if len(a.messages) == 0 {
		return "", false
	}

	st, ok := a.channels[channel]
	if !ok {
		// The interval starts counting from the first message seen, so a
		// fresh channel waits a full interval before its first ad.
		st = &adState{lastAd: a.clock.Now()}
		a.channels[channel] = st
	}
	st.seen++

	if st.seen < a.minMessages || a.clock.Now().Sub(st.lastAd) < a.interval {
		return "", false
	}

	msg := a.messages[st.nextIdx%len(a.messages)]
	st.nextIdx++
	st.seen = 0
	st.lastAd = a.clock.Now()
	return msg, true
}

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAdvanceFiresInOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []string
	c.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	c.AfterFunc(time.Second, func() { got = append(got, "a") })
	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })

	c.Advance(1500 * time.Millisecond)
	require.Equal(t, []string{"a"}, got)

	c.Advance(5 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, epoch.Add(6500*time.Millisecond), c.Now())
	require.Zero(t, c.Pending())
}

func TestFakeCallbackSeesDeadline(t *testing.T) {
	c := NewFake(epoch)
	var at time.Time
	c.AfterFunc(2*time.Second, func() { at = c.Now() })
	c.Advance(10 * time.Second)
	require.Equal(t, epoch.Add(2*time.Second), at)
}

func TestFakeReschedulingInsideCallback(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	var tick func()
	tick = func() {
		fired++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	require.Equal(t, 5, fired)
	require.Equal(t, 1, c.Pending())
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	require.True(t, tm.Stop())
	require.False(t, tm.Stop())
	c.Advance(time.Minute)
	require.False(t, fired)
}

func TestFakeStopAfterFire(t *testing.T) {
	c := NewFake(epoch)
	tm := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	require.False(t, tm.Stop())
}

func TestSystemClock(t *testing.T) {
	done := make(chan struct{})
	System().AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("system timer did not fire")
	}
	require.WithinDuration(t, time.Now(), System().Now(), time.Second)
}

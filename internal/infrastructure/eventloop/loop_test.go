package eventloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLoop(t *testing.T) (*Loop, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Unix(1700000000, 0))
	loop := New(zap.NewNop(), clock)
	t.Cleanup(loop.Close)
	return loop, clock
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop, _ := newTestLoop(t)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Sync()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopTasksCanPostFromLoop(t *testing.T) {
	loop, _ := newTestLoop(t)

	var got []string
	loop.Post(func() {
		got = append(got, "first")
		loop.Post(func() {
			got = append(got, "third")
			loop.Post(func() { got = append(got, "fourth") })
		})
	})
	loop.Post(func() { got = append(got, "second") })
	loop.Sync()

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, got)
}

func TestLoopDoWaits(t *testing.T) {
	loop, _ := newTestLoop(t)

	value := 0
	require.NoError(t, loop.Do(func() { value = 42 }))
	assert.Equal(t, 42, value)
}

func TestLoopSingleGoroutine(t *testing.T) {
	loop, _ := newTestLoop(t)

	var running, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Do(func() {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
			})
		}()
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestLoopRecoversFromPanic(t *testing.T) {
	loop, _ := newTestLoop(t)

	loop.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, loop.Do(func() { ran = true }))
	assert.True(t, ran)
}

func TestLoopAfterUsesClock(t *testing.T) {
	loop, clock := newTestLoop(t)

	fired := false
	loop.After(500*time.Millisecond, func() { fired = true })

	clock.Advance(499 * time.Millisecond)
	loop.Sync()
	assert.False(t, fired)

	clock.Advance(time.Millisecond)
	loop.Sync()
	assert.True(t, fired)
}

func TestLoopAfterStop(t *testing.T) {
	loop, clock := newTestLoop(t)

	fired := false
	timer := loop.After(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	clock.Advance(2 * time.Second)
	loop.Sync()
	assert.False(t, fired)
}

func TestLoopClose(t *testing.T) {
	loop := New(zap.NewNop(), NewManualClock(time.Unix(0, 0)))

	ran := false
	loop.Post(func() { ran = true })
	loop.Close()

	assert.True(t, ran, "queued work runs before close returns")
	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Do(func() {}), ErrClosed)
	loop.Close()
}

func TestManualClockFiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))

	var got []string
	clock.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	clock.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	clock.AfterFunc(200*time.Millisecond, func() {
		got = append(got, "b")
		clock.AfterFunc(50*time.Millisecond, func() { got = append(got, "b2") })
	})
	assert.Equal(t, 3, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "b2", "c"}, got)
	assert.Equal(t, time.Unix(1, 0), clock.Now())
	assert.Zero(t, clock.Pending())
}

func TestManualClockSameDeadlineKeepsScheduleOrder(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		clock.AfterFunc(time.Second, func() { got = append(got, i) })
	}
	clock.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestRealClock(t *testing.T) {
	clock := RealClock()
	done := make(chan struct{})
	clock.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.WithinDuration(t, time.Now(), clock.Now(), time.Second)
}

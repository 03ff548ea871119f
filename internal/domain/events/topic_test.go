package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

func TestTopicPublishInSubscriptionOrder(t *testing.T) {
	topic := NewTopic[int]("numbers")

	var got []string
	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })

	topic.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "numbers", topic.Name())
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	topic := NewTopic[string]("names")

	var got []string
	sub := topic.Subscribe(func(v string) { got = append(got, v) })
	require.Equal(t, 1, topic.Subscribers())
	assert.Equal(t, "names", sub.Topic())
	assert.NotEmpty(t, sub.ID())

	topic.Publish("one")
	sub.Unsubscribe()
	sub.Unsubscribe()
	topic.Publish("two")

	assert.Equal(t, []string{"one"}, got)
	assert.Zero(t, topic.Subscribers())
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	topic := NewTopic[int]("reentrant")

	calls := 0
	var sub *Subscription
	sub = topic.Subscribe(func(int) {
		calls++
		sub.Unsubscribe()
	})
	other := 0
	topic.Subscribe(func(int) { other++ })

	topic.Publish(1)
	topic.Publish(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestScopeClose(t *testing.T) {
	bus := NewBus()
	scope := &Scope{}

	var states []types.AppState
	scope.Add(bus.AppStateChanged.Subscribe(func(s types.AppState) { states = append(states, s) }))
	scope.Add(bus.WalletReady.Subscribe(func(string) {}))
	assert.Equal(t, 2, scope.Len())

	bus.AppStateChanged.Publish(types.AppStateActive)
	scope.Close()
	bus.AppStateChanged.Publish(types.AppStateBackground)

	assert.Equal(t, []types.AppState{types.AppStateActive}, states)
	assert.Zero(t, bus.AppStateChanged.Subscribers())
	assert.Zero(t, bus.WalletReady.Subscribers())

	late := bus.SessionResolved.Subscribe(func(types.Resolution) {})
	scope.Add(late)
	assert.Zero(t, bus.SessionResolved.Subscribers())
}

func TestTopicConcurrentUse(t *testing.T) {
	topic := NewTopic[int]("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := topic.Subscribe(func(int) {})
			sub.Unsubscribe()
		}()
		go func(v int) {
			defer wg.Done()
			topic.Publish(v)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, topic.Subscribers())
}

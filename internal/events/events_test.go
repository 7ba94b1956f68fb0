package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncDispatcherDeliversInOrder(t *testing.T) {
	d := NewSyncDispatcher()

	var got []string

	d.Subscribe(func(e Event) {
		got = append(got, e.Name)
	})

	d.Emit(Event{Name: FeedbackCreated})
	d.Emit(Event{Name: VoteCast})

	assert.Equal(t, []string{FeedbackCreated, VoteCast}, got)
}

func TestDispatcherFansOut(t *testing.T) {
	d := NewSyncDispatcher()

	calls := 0
	d.Subscribe(func(Event) { calls++ })
	d.Subscribe(func(Event) { calls++ })

	d.Emit(Event{Name: FeedbackMerged})

	assert.Equal(t, 2, calls)
}

func TestAsyncDispatcherRecoversFromPanic(t *testing.T) {
	d := NewDispatcher()

	var wg sync.WaitGroup
	wg.Add(2)

	d.Subscribe(func(Event) {
		defer wg.Done()
		panic("sink blew up")
	})

	delivered := false
	d.Subscribe(func(Event) {
		defer wg.Done()
		delivered = true
	})

	d.Emit(Event{Name: VoteRemoved})
	wg.Wait()

	assert.True(t, delivered)
}

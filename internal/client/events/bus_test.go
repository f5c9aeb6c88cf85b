package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmit_InvokesInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var order []int
	bus.Subscribe(func() { order = append(order, 1) })
	bus.Subscribe(func() { order = append(order, 2) })
	bus.Subscribe(func() { order = append(order, 3) })

	bus.Emit()
	require.Equal(t, []int{1, 2, 3}, order)

	bus.Emit()
	require.Equal(t, []int{1, 2, 3, 1, 2, 3}, order)
}

func TestEmit_PanicDoesNotSuppressOthers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var calls []string
	bus.Subscribe(func() { calls = append(calls, "a") })
	bus.Subscribe(func() { panic("listener blew up") })
	bus.Subscribe(func() { calls = append(calls, "c") })

	require.NotPanics(t, bus.Emit)
	require.Equal(t, []string{"a", "c"}, calls)
}

func TestUnsubscribe_RemovesOnlyThatHandle(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var calls []int
	unsub1 := bus.Subscribe(func() { calls = append(calls, 1) })
	bus.Subscribe(func() { calls = append(calls, 2) })

	unsub1()
	bus.Emit()
	require.Equal(t, []int{2}, calls)
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	count := 0
	unsub := bus.Subscribe(func() { count++ })

	unsub()
	unsub()
	bus.Emit()
	require.Zero(t, count)
}

func TestSubscribe_SameCallbackTwiceIsTwoHandles(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	count := 0
	fn := func() { count++ }

	unsub1 := bus.Subscribe(fn)
	bus.Subscribe(fn)

	bus.Emit()
	require.Equal(t, 2, count)

	// Removing one handle leaves the other registration intact.
	unsub1()
	bus.Emit()
	require.Equal(t, 3, count)
}

func TestUnsubscribe_FromInsideCallback(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var calls []int
	var unsub2 func()
	bus.Subscribe(func() {
		calls = append(calls, 1)
		unsub2()
	})
	unsub2 = bus.Subscribe(func() { calls = append(calls, 2) })

	// The emit in progress iterates a snapshot; the removal takes effect
	// for every later emit.
	bus.Emit()
	bus.Emit()
	require.Equal(t, []int{1, 2, 1}, calls)
}

func TestSubscribe_DuringEmitNotInvokedThisRound(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	count := 0
	bus.Subscribe(func() {
		bus.Subscribe(func() { count += 10 })
		count++
	})

	bus.Emit()
	require.Equal(t, 1, count)

	bus.Emit()
	require.Equal(t, 12, count)
}

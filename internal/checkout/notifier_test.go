package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/storefront/internal/domain"
)

func receive(t *testing.T, ch <-chan domain.OrderStatus) domain.OrderStatus {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(time.Second):
		t.Fatal("no status delivered")
		return ""
	}
}

func TestNotifier_DeliversToSubscribers(t *testing.T) {
	n := NewNotifier()
	a, cancelA := n.Subscribe("o1")
	b, cancelB := n.Subscribe("o1")
	defer cancelA()
	defer cancelB()

	n.Notify("o1", "Completed")

	assert.Equal(t, domain.OrderCompleted, receive(t, a))
	assert.Equal(t, domain.OrderCompleted, receive(t, b))
}

func TestNotifier_CancelRemovesSubscriber(t *testing.T) {
	n := NewNotifier()
	_, cancel := n.Subscribe("o1")
	cancel()

	assert.Empty(t, n.waiters)

	// With no subscriber left the status is kept for a late one.
	n.Notify("o1", "Shipped")
	ch, cancel := n.Subscribe("o1")
	defer cancel()
	assert.Equal(t, domain.OrderShipped, receive(t, ch))
}

func TestNotifier_EarlyStatusExpires(t *testing.T) {
	n := NewNotifier()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.nowFunc = func() time.Time { return now }

	n.Notify("old", "Completed")
	now = now.Add(2 * earlyTTL)
	n.Notify("new", "Completed")

	assert.NotContains(t, n.early, "old")
	assert.Contains(t, n.early, "new")
}

func TestNotifier_UnreadStatusReplacedByLatest(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe("o1")
	defer cancel()

	n.Notify("o1", "Pending")
	n.Notify("o1", "Completed")

	assert.Equal(t, domain.OrderCompleted, receive(t, ch))
	select {
	case st := <-ch:
		t.Fatalf("unexpected extra status %q", st)
	default:
	}
}

func TestNotifier_EarlyPendingThenSettled(t *testing.T) {
	n := NewNotifier()
	n.Notify("o1", "Pending")

	ch, cancel := n.Subscribe("o1")
	assert.Equal(t, domain.OrderPending, receive(t, ch))

	n.Notify("o1", "Processing")
	assert.Equal(t, domain.OrderProcessing, receive(t, ch))
	assert.Empty(t, n.early)

	cancel()
	assert.Empty(t, n.waiters)
}

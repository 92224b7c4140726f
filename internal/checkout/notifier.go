package checkout

import (
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// earlyTTL bounds how long a confirmation that arrived before anyone
// subscribed is kept.
const earlyTTL = time.Minute

type earlyStatus struct {
	status domain.OrderStatus
	at     time.Time
}

// Notifier fans order confirmations pushed by the backend out to the
// checkouts waiting on them.
type Notifier struct {
	mu      sync.Mutex
	waiters map[string][]chan domain.OrderStatus
	early   map[string]earlyStatus
	nowFunc func() time.Time
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		waiters: make(map[string][]chan domain.OrderStatus),
		early:   make(map[string]earlyStatus),
		nowFunc: time.Now,
	}
}

// Subscribe returns a channel receiving orderID's statuses and a func
// releasing the subscription. A status received shortly before the call is
// delivered immediately; later ones keep arriving until release.
func (n *Notifier) Subscribe(orderID string) (<-chan domain.OrderStatus, func()) {
	ch := make(chan domain.OrderStatus, 1)

	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := n.early[orderID]; ok {
		delete(n.early, orderID)
		ch <- e.status
	}
	n.waiters[orderID] = append(n.waiters[orderID], ch)

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.waiters[orderID]
		for i, c := range subs {
			if c == ch {
				subs = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(n.waiters, orderID)
		} else {
			n.waiters[orderID] = subs
		}
	}
}

// Notify delivers status to every subscriber of orderID. A status the
// subscriber has not read yet is replaced, so the latest one always arrives.
func (n *Notifier) Notify(orderID, status string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.nowFunc()
	for id, e := range n.early {
		if now.Sub(e.at) > earlyTTL {
			delete(n.early, id)
		}
	}

	subs, ok := n.waiters[orderID]
	if !ok {
		n.early[orderID] = earlyStatus{status: domain.OrderStatus(status), at: now}
		return
	}
	for _, ch := range subs {
		deliver(ch, domain.OrderStatus(status))
	}
}

// deliver puts status in ch without blocking. Only Notify and Subscribe send,
// both under n.mu, so after draining the send always has room.
func deliver(ch chan domain.OrderStatus, status domain.OrderStatus) {
	select {
	case ch <- status:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- status
}

package locking

import (
	"context"
	"fmt"
	"sync"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

var _ ports.OrderLocker = (*Local)(nil)

// Local serialises work per order inside a single process. A slot lives only while
// someone holds or waits for it.
type Local struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: map[int64]*slot{}}
}

// Lock blocks until the order is free or ctx is done.
func (l *Local) Lock(ctx context.Context, orderID int64) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[orderID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[orderID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(orderID, s)
		return nil, fmt.Errorf("%w: order %d: %w", ports.ErrLockNotObtained, orderID, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(orderID, s)
		})
	}, nil
}

func (l *Local) drop(orderID int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, orderID)
	}
}


package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func TestLocal_SerialisesSameOrder(t *testing.T) {
	locker := NewLocal()
	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, ports.ErrLockNotObtained)

	other, err := locker.Lock(context.Background(), 2)
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
}

func TestLocal_ReleasesSlotsWhenIdle(t *testing.T) {
	locker := NewLocal()
	for id := int64(1); id <= 100; id++ {
		release, err := locker.Lock(context.Background(), id)
		require.NoError(t, err)
		release()
	}
	assert.Equal(t, 0, locker.held())

	release, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 7)
	require.ErrorIs(t, err, ports.ErrLockNotObtained)
	assert.Equal(t, 1, locker.held())
	release()
	assert.Equal(t, 0, locker.held())
}

func TestLocal_WaitersKeepSlotAlive(t *testing.T) {
	locker := NewLocal()
	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inside   int
		overlaps int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := locker.Lock(context.Background(), 1)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > 1 {
				overlaps++
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			next()
		}()
	}
	time.Sleep(10 * time.Millisecond)
	release()
	wg.Wait()

	assert.Zero(t, overlaps)
	assert.Equal(t, 0, locker.held())
}

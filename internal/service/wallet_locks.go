package service

import (
	"sync"
	"time"
)

// walletLocks serializes operations per wallet owner within this process. The
// database row lock still guards multi-process deployments; this lease is what
// bounds the wait so a contended wallet surfaces a conflict instead of hanging.
type walletLocks struct {
	mu    sync.Mutex
	locks map[uint]chan struct{}
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[uint]chan struct{})}
}

func (l *walletLocks) lock(userID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[userID] = ch
	}
	return ch
}

// acquire takes the wallet lease, waiting up to wait. Returns
// ErrConcurrencyConflict when the lease could not be taken in time.
func (l *walletLocks) acquire(userID uint, wait time.Duration) error {
	ch := l.lock(userID)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrConcurrencyConflict
	}
}

func (l *walletLocks) release(userID uint) {
	<-l.lock(userID)
}

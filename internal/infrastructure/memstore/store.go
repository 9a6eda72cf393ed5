// Package memstore keeps quotes and transfers in process memory. It serves
// single-node deployments and tests; the daily aggregate is guarded by a
// per-user lock held for the length of a unit of work.
package memstore

import (
	"context"
	"sync"
	"time"

	"remittance-service/internal/domain"
)

const defaultLockWait = 5 * time.Second

type Store struct {
	mu        sync.RWMutex
	quotes    map[string]domain.Quote
	transfers []domain.Transfer
	byQuote   map[string]int
	nextID    int64
	userLocks map[string]chan struct{}
	lockWait  time.Duration
}

type Option func(*Store)

// WithLockWait bounds how long a unit of work waits for a user's aggregate.
// Non-positive values keep the default.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		quotes:    map[string]domain.Quote{},
		byQuote:   map[string]int{},
		userLocks: map[string]chan struct{}{},
		lockWait:  defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) userLock(userID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = make(chan struct{}, 1)
		s.userLocks[userID] = l
	}
	return l
}

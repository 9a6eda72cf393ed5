package memstore

import (
	"context"
	"fmt"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
)

type txKey struct{}

type tx struct {
	store   *Store
	held    map[string]chan struct{}
	pending []domain.Transfer
}

func txFromCtx(ctx context.Context) *tx {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		return t
	}
	return nil
}

func (t *tx) lockUser(ctx context.Context, userID string) error {
	if _, ok := t.held[userID]; ok {
		return nil
	}
	l := t.store.userLock(userID)
	timer := time.NewTimer(t.store.lockWait)
	defer timer.Stop()
	select {
	case l <- struct{}{}:
		t.held[userID] = l
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: lock wait timeout for user %s", application.ErrConflict, userID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *tx) release() {
	for _, l := range t.held {
		<-l
	}
	t.held = nil
}

// UnitOfWork stages transfer writes and applies them on commit. Locks taken
// through the context are released when Do returns.
type UnitOfWork struct {
	Store *Store
}

var _ application.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t := &tx{store: u.Store, held: map[string]chan struct{}{}}
	defer t.release()
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return u.Store.commit(t.pending)
}

func (s *Store) commit(pending []domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range pending {
		if _, dup := s.byQuote[tr.QuoteID]; dup {
			return fmt.Errorf("%w: quote %s", application.ErrAlreadySettled, tr.QuoteID)
		}
	}
	for _, tr := range pending {
		s.byQuote[tr.QuoteID] = len(s.transfers)
		s.transfers = append(s.transfers, tr)
	}
	return nil
}

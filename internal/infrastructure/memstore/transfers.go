package memstore

import (
	"context"
	"fmt"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

type TransferRepo struct{ s *Store }

func NewTransferRepo(s *Store) *TransferRepo { return &TransferRepo{s: s} }

var _ application.TransferRepo = (*TransferRepo)(nil)

func (r *TransferRepo) LockDailyUSDTotal(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	t := txFromCtx(ctx)
	if t != nil {
		if err := t.lockUser(ctx, userID); err != nil {
			return decimal.Zero, err
		}
	}
	total := decimal.Zero
	inWindow := func(tr domain.Transfer) bool {
		return tr.UserID == userID && !tr.RequestedAt.Before(from) && tr.RequestedAt.Before(to)
	}
	r.s.mu.RLock()
	for _, tr := range r.s.transfers {
		if inWindow(tr) {
			total = total.Add(tr.USDAmount)
		}
	}
	r.s.mu.RUnlock()
	if t != nil {
		for _, tr := range t.pending {
			if inWindow(tr) {
				total = total.Add(tr.USDAmount)
			}
		}
	}
	return total, nil
}

func (r *TransferRepo) Create(ctx context.Context, tr *domain.Transfer) error {
	t := txFromCtx(ctx)
	r.s.mu.Lock()
	if _, dup := r.s.byQuote[tr.QuoteID]; dup {
		r.s.mu.Unlock()
		return fmt.Errorf("%w: quote %s", application.ErrAlreadySettled, tr.QuoteID)
	}
	r.s.nextID++
	tr.ID = r.s.nextID
	r.s.mu.Unlock()

	if t == nil {
		return r.s.commit([]domain.Transfer{*tr})
	}
	for _, p := range t.pending {
		if p.QuoteID == tr.QuoteID {
			return fmt.Errorf("%w: quote %s", application.ErrAlreadySettled, tr.QuoteID)
		}
	}
	t.pending = append(t.pending, *tr)
	return nil
}

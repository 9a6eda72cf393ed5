package memstore

import (
	"context"
	"fmt"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
)

type QuoteRepo struct{ s *Store }

func NewQuoteRepo(s *Store) *QuoteRepo { return &QuoteRepo{s: s} }

var _ application.QuoteRepo = (*QuoteRepo)(nil)

func (r *QuoteRepo) Create(_ context.Context, q domain.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.quotes[q.ID]; ok {
		return fmt.Errorf("%w: quote id %s exists", application.ErrConflict, q.ID)
	}
	r.s.quotes[q.ID] = q
	return nil
}

func (r *QuoteRepo) GetByID(_ context.Context, id string) (domain.Quote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return domain.Quote{}, application.ErrNotFound
	}
	return q, nil
}

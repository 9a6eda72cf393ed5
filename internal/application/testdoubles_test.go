package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakeQuoteRepo struct {
	mu    sync.Mutex
	store map[string]domain.Quote
	err   error
}

func (f *fakeQuoteRepo) Create(_ context.Context, q domain.Quote) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = map[string]domain.Quote{}
	}
	f.store[q.ID] = q
	return nil
}

func (f *fakeQuoteRepo) GetByID(_ context.Context, id string) (domain.Quote, error) {
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.store[id]
	if !ok {
		return domain.Quote{}, ErrNotFound
	}
	return q, nil
}

type fakeTransferRepo struct {
	transfers []domain.Transfer
	total     decimal.Decimal
	lockErr   error
	createErr error
	lockCalls int
}

func (f *fakeTransferRepo) LockDailyUSDTotal(context.Context, string, time.Time, time.Time) (decimal.Decimal, error) {
	f.lockCalls++
	if f.lockErr != nil {
		return decimal.Zero, f.lockErr
	}
	return f.total, nil
}

func (f *fakeTransferRepo) Create(_ context.Context, t *domain.Transfer) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.transfers {
		if existing.QuoteID == t.QuoteID {
			return fmt.Errorf("%w: %s", ErrAlreadySettled, t.QuoteID)
		}
	}
	t.ID = int64(len(f.transfers) + 1)
	f.transfers = append(f.transfers, *t)
	return nil
}

type fakeRateSource struct {
	rates domain.Rates
	err   error
	calls int
}

func (f *fakeRateSource) FetchRates(context.Context) (domain.Rates, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("quote-%d", g.n)
}

type fakeIdem struct {
	seen     map[string]bool
	released []string
}

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, k string) error {
	delete(f.seen, k)
	f.released = append(f.released, k)
	return nil
}

type recordingMetrics struct {
	NoopMetrics
	rejected []string
	settled  int
	issued   int
}

func (m *recordingMetrics) SettlementRejected(reason string)                 { m.rejected = append(m.rejected, reason) }
func (m *recordingMetrics) TransferSettled(domain.Currency, decimal.Decimal) { m.settled++ }
func (m *recordingMetrics) QuoteIssued(domain.Currency)                      { m.issued++ }

type recordingPublisher struct {
	events []domain.Transfer
	err    error
}

func (p *recordingPublisher) PublishTransferSettled(_ context.Context, t domain.Transfer) error {
	p.events = append(p.events, t)
	return p.err
}

package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var concNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seedQuote(t *testing.T, repo *memstore.QuoteRepo, id, user, usd string) {
	t.Helper()
	amount := decimal.RequireFromString(usd)
	require.NoError(t, repo.Create(context.Background(), domain.Quote{
		ID:              id,
		UserID:          user,
		Amount:          10000,
		TargetCurrency:  domain.USD,
		ExchangeRate:    decimal.RequireFromString("1.2342"),
		USDExchangeRate: decimal.RequireFromString("1.2342"),
		Fee:             decimal.RequireFromString("1000"),
		TargetAmount:    amount,
		USDAmount:       amount,
		ExpireTime:      concNow.Add(10 * time.Minute),
		CreatedAt:       concNow,
	}))
}

// settledUSD sums the user's settled usd amounts for the day of concNow.
func settledUSD(t *testing.T, store *memstore.Store, user string) decimal.Decimal {
	t.Helper()
	from := concNow.Truncate(24 * time.Hour)
	repo := memstore.NewTransferRepo(store)
	var total decimal.Decimal
	err := (&memstore.UnitOfWork{Store: store}).Do(context.Background(), func(ctx context.Context) error {
		var err error
		total, err = repo.LockDailyUSDTotal(ctx, user, from, from.Add(24*time.Hour))
		return err
	})
	require.NoError(t, err)
	return total
}

func newMemSettlement(store *memstore.Store) *application.SettlementService {
	return application.NewSettlementService(
		memstore.NewQuoteRepo(store),
		memstore.NewTransferRepo(store),
		&memstore.UnitOfWork{Store: store},
		application.SettlementSettings{
			DailyLimits: map[domain.UserClass]decimal.Decimal{
				domain.UserClassRegNo: decimal.NewFromInt(1000),
			},
		},
		application.WithSettlementClock(fixedClock{t: concNow}),
	)
}

func TestRequestTransfer_ConcurrentSameQuoteSettlesOnce(t *testing.T) {
	store := memstore.New()
	seedQuote(t, memstore.NewQuoteRepo(store), "q-1", "user-1", "100")
	svc := newMemSettlement(store)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		settled int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestTransfer(context.Background(), "user-1", domain.UserClassRegNo, "q-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, application.ErrAlreadySettled):
				settled++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, settled)
	require.Equal(t, "100", settledUSD(t, store, "user-1").String())
}

func TestRequestTransfer_ConcurrentQuotesRespectDailyLimit(t *testing.T) {
	store := memstore.New()
	quotes := memstore.NewQuoteRepo(store)
	const n = 12
	for i := 0; i < n; i++ {
		seedQuote(t, quotes, fmt.Sprintf("q-%d", i), "user-1", "150")
	}
	svc := newMemSettlement(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.RequestTransfer(context.Background(), "user-1", domain.UserClassRegNo, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, application.ErrLimitExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("q-%d", i))
	}
	wg.Wait()

	// 6 * 150 = 900 fits, a seventh would reach 1050
	require.Equal(t, 6, ok)
	require.Equal(t, n-6, rejected)

	require.Equal(t, "900", settledUSD(t, store, "user-1").String())
}

func TestRequestTransfer_UsersDoNotShareLimits(t *testing.T) {
	store := memstore.New()
	quotes := memstore.NewQuoteRepo(store)
	seedQuote(t, quotes, "a", "user-a", "900")
	seedQuote(t, quotes, "b", "user-b", "900")
	svc := newMemSettlement(store)

	_, err := svc.RequestTransfer(context.Background(), "user-a", domain.UserClassRegNo, "a")
	require.NoError(t, err)
	_, err = svc.RequestTransfer(context.Background(), "user-b", domain.UserClassRegNo, "b")
	require.NoError(t, err)
}

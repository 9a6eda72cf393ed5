package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/pg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func withPostgres(t *testing.T) (*pg.DB, func()) {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized PG tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("remittance"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pg.RunMigrations(ctx, db))

	teardown := func() {
		db.Close()
		_ = container.Terminate(context.Background())
	}
	return db, teardown
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedQuote(t *testing.T, repo *pg.QuoteRepo, id, user, usd string, now time.Time) domain.Quote {
	t.Helper()
	q := domain.Quote{
		ID:              id,
		UserID:          user,
		Amount:          1_000_000,
		TargetCurrency:  domain.USD,
		ExchangeRate:    dec("1.2342"),
		USDExchangeRate: dec("1.2342"),
		Fee:             dec("3000"),
		TargetAmount:    dec(usd),
		USDAmount:       dec(usd),
		ExpireTime:      now.Add(10 * time.Minute),
		CreatedAt:       now,
	}
	require.NoError(t, repo.Create(context.Background(), q))
	return q
}

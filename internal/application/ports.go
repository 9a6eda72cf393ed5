package application

import (
	"context"
	"time"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

type QuoteRepo interface {
	Create(ctx context.Context, q domain.Quote) error
	// GetByID returns ErrNotFound when no quote has the given id.
	GetByID(ctx context.Context, id string) (domain.Quote, error)
}

type TransferRepo interface {
	// LockDailyUSDTotal takes exclusive access to the user's aggregate for
	// [from, to) until the surrounding unit of work ends, then returns the
	// sum of usd amounts settled in that window. It fails with ErrConflict
	// when the lock cannot be acquired in time.
	LockDailyUSDTotal(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error)
	// Create assigns t.ID. It fails with ErrAlreadySettled when a transfer
	// for t.QuoteID already exists.
	Create(ctx context.Context, t *domain.Transfer) error
}

type RateSource interface {
	FetchRates(ctx context.Context) (domain.Rates, error)
}

type EventPublisher interface {
	PublishTransferSettled(ctx context.Context, t domain.Transfer) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishTransferSettled(context.Context, domain.Transfer) error { return nil }

package pg

import (
	"context"
	"fmt"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/logx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransferRepo struct{ db *DB }

func NewTransferRepo(db *DB) *TransferRepo { return &TransferRepo{db: db} }

var _ application.TransferRepo = (*TransferRepo)(nil)

// dailyLockKey names the advisory lock guarding one user's settlement day.
func dailyLockKey(userID string, from time.Time) string {
	return "transfer-day:" + userID + ":" + from.UTC().Format(time.RFC3339)
}

// LockDailyUSDTotal takes the transaction-scoped advisory lock for the
// user's day and sums usd_amount over [from, to). Outside a unit of work the
// sum is returned without locking.
func (r *TransferRepo) LockDailyUSDTotal(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	log := logx.L().With(
		zap.String("repo", "transfer"),
		zap.String("operation", "LockDailyUSDTotal"),
		zap.String("user_id", userID),
	)
	q := r.db.conn(ctx)
	if txFromCtx(ctx) != nil {
		const lock = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
		if _, err := q.Exec(ctx, lock, dailyLockKey(userID, from)); err != nil {
			log.Warn("sql.lock_failed", zap.Error(err))
			return decimal.Zero, classify(err)
		}
	}
	const sum = `
        SELECT COALESCE(SUM(usd_amount), 0)::text
        FROM transfers
        WHERE user_id=$1 AND requested_at >= $2 AND requested_at < $3`
	var raw string
	if err := q.QueryRow(ctx, sum, userID, from, to).Scan(&raw); err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return decimal.Zero, classify(err)
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse daily total %q: %w", raw, err)
	}
	return total, nil
}

func (r *TransferRepo) Create(ctx context.Context, t *domain.Transfer) error {
	const ins = `
        INSERT INTO transfers(quote_id, user_id, source_amount, fee, target_currency, exchange_rate,
                              usd_exchange_rate, target_amount, usd_amount, requested_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10)
        RETURNING id`
	log := logx.L().With(
		zap.String("repo", "transfer"),
		zap.String("operation", "Create"),
		zap.String("quote_id", t.QuoteID),
		zap.String("user_id", t.UserID),
	)
	log.Debug("sql.exec_start")
	err := r.db.conn(ctx).QueryRow(ctx, ins,
		t.QuoteID, t.UserID, t.SourceAmount, t.Fee.String(), string(t.TargetCurrency),
		t.ExchangeRate.String(), t.USDExchangeRate.String(), t.TargetAmount.String(), t.USDAmount.String(),
		t.RequestedAt,
	).Scan(&t.ID)
	if isUniqueViolation(err, "transfers_quote_id_key") {
		return fmt.Errorf("%w: quote %s", application.ErrAlreadySettled, t.QuoteID)
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return classify(err)
	}
	log.Debug("sql.exec_success", zap.Int64("id", t.ID))
	return nil
}

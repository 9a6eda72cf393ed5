package pg

import (
	"context"
	"errors"
	"fmt"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type QuoteRepo struct{ db *DB }

func NewQuoteRepo(db *DB) *QuoteRepo { return &QuoteRepo{db: db} }

var _ application.QuoteRepo = (*QuoteRepo)(nil)

func (r *QuoteRepo) Create(ctx context.Context, q domain.Quote) error {
	const ins = `
        INSERT INTO quotes(id, user_id, amount, target_currency, exchange_rate, usd_exchange_rate,
                           fee, target_amount, usd_amount, expire_time, created_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $11)`
	log := logx.L().With(
		zap.String("repo", "quote"),
		zap.String("operation", "Create"),
		zap.String("id", q.ID),
		zap.String("user_id", q.UserID),
	)
	log.Debug("sql.exec_start")
	_, err := r.db.conn(ctx).Exec(ctx, ins,
		q.ID, q.UserID, q.Amount, string(q.TargetCurrency),
		q.ExchangeRate.String(), q.USDExchangeRate.String(), q.Fee.String(),
		q.TargetAmount.String(), q.USDAmount.String(),
		q.ExpireTime, q.CreatedAt,
	)
	if isUniqueViolation(err, "quotes_pkey") {
		return fmt.Errorf("%w: quote id %s exists", application.ErrConflict, q.ID)
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return classify(err)
	}
	return nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, id string) (domain.Quote, error) {
	const sel = `
        SELECT id, user_id, amount, target_currency, exchange_rate::text, usd_exchange_rate::text,
               fee::text, target_amount::text, usd_amount::text, expire_time, created_at
        FROM quotes WHERE id=$1`
	var (
		out      domain.Quote
		currency string
		nums     [5]string
	)
	err := r.db.conn(ctx).QueryRow(ctx, sel, id).Scan(
		&out.ID, &out.UserID, &out.Amount, &currency,
		&nums[0], &nums[1], &nums[2], &nums[3], &nums[4],
		&out.ExpireTime, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quote{}, fmt.Errorf("%w: quote %s", application.ErrNotFound, id)
	}
	if err != nil {
		logx.L().Error("sql.query_failed",
			zap.String("repo", "quote"),
			zap.String("operation", "GetByID"),
			zap.String("id", id),
			zap.Error(err),
		)
		return domain.Quote{}, classify(err)
	}
	out.TargetCurrency = domain.Currency(currency)
	dst := []*decimal.Decimal{&out.ExchangeRate, &out.USDExchangeRate, &out.Fee, &out.TargetAmount, &out.USDAmount}
	if err := parseDecimals(nums[:], dst); err != nil {
		return domain.Quote{}, err
	}
	out.ExpireTime = out.ExpireTime.UTC()
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func parseDecimals(src []string, dst []*decimal.Decimal) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("parse numeric %q: %w", s, err)
		}
		*dst[i] = d
	}
	return nil
}

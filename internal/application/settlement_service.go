package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remittance-service/internal/domain"

	"go.uber.org/zap"
)

type SettlementService struct {
	quotes    QuoteRepo
	transfers TransferRepo
	uow       UnitOfWork
	settings  SettlementSettings
	events    EventPublisher
	metrics   Metrics
	clock     Clock
	log       *zap.Logger
}

type SettlementOption func(*SettlementService)

func WithSettlementClock(c Clock) SettlementOption { return func(s *SettlementService) { s.clock = c } }
func WithSettlementLogger(l *zap.Logger) SettlementOption {
	return func(s *SettlementService) { s.log = l }
}
func WithSettlementMetrics(m Metrics) SettlementOption {
	return func(s *SettlementService) { s.metrics = m }
}
func WithEventPublisher(p EventPublisher) SettlementOption {
	return func(s *SettlementService) { s.events = p }
}

func NewSettlementService(quotes QuoteRepo, transfers TransferRepo, uow UnitOfWork, settings SettlementSettings, opts ...SettlementOption) *SettlementService {
	s := &SettlementService{
		quotes:    quotes,
		transfers: transfers,
		uow:       uow,
		settings:  settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.uow == nil {
		s.uow = NoopUoW{}
	}
	if s.events == nil {
		s.events = NoopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = NoopMetrics{}
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// RequestTransfer settles quoteID on behalf of userID. Validation failures
// short-circuit in order: unknown quote, foreign owner, expiry, missing limit.
// The daily-limit check and the insert run in one unit of work holding the
// user's daily aggregate exclusively.
func (s *SettlementService) RequestTransfer(ctx context.Context, userID string, class domain.UserClass, quoteID string) (domain.Transfer, error) {
	log := s.log.With(
		zap.String("operation", "RequestTransfer"),
		zap.String("user_id", userID),
		zap.String("user_class", string(class)),
		zap.String("quote_id", quoteID),
	)

	q, err := s.quotes.GetByID(ctx, quoteID)
	if errors.Is(err, ErrNotFound) {
		s.metrics.SettlementRejected("not_found")
		return domain.Transfer{}, fmt.Errorf("%w: quote %s", ErrNotFound, quoteID)
	}
	if err != nil {
		log.Error("settlement.quote_lookup_failed", zap.Error(err))
		return domain.Transfer{}, ErrInternal
	}
	if q.UserID != userID {
		s.metrics.SettlementRejected("unauthorized")
		return domain.Transfer{}, fmt.Errorf("%w: quote belongs to another user", ErrUnauthorized)
	}
	now := s.clock.Now()
	if q.Expired(now) {
		s.metrics.SettlementRejected("expired")
		return domain.Transfer{}, fmt.Errorf("%w: expired at %s", ErrQuoteExpired, q.ExpireTime.Format(time.RFC3339))
	}
	limit, ok := s.settings.DailyLimits[class]
	if !ok {
		log.Error("settlement.no_daily_limit")
		return domain.Transfer{}, fmt.Errorf("%w: no daily limit for user class %q", ErrConfiguration, class)
	}

	from, to := s.settings.dayBounds(now)
	var out domain.Transfer
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		total, err := s.transfers.LockDailyUSDTotal(ctx, userID, from, to)
		if err != nil {
			return err
		}
		if total.Add(q.USDAmount).GreaterThan(limit) {
			log.Info("settlement.limit_exceeded",
				zap.String("today_total_usd", total.String()),
				zap.String("quote_usd_amount", q.USDAmount.String()),
				zap.String("daily_limit", limit.String()),
			)
			return fmt.Errorf("%w: %s + %s > %s", ErrLimitExceeded, total, q.USDAmount, limit)
		}
		t := domain.NewTransfer(q, now)
		if err := s.transfers.Create(ctx, &t); err != nil {
			return err
		}
		out = t
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrLimitExceeded):
		s.metrics.SettlementRejected("limit_exceeded")
		return domain.Transfer{}, err
	case errors.Is(err, ErrAlreadySettled):
		s.metrics.SettlementRejected("already_settled")
		return domain.Transfer{}, err
	case errors.Is(err, ErrConflict):
		s.metrics.SettlementRejected("conflict")
		log.Warn("settlement.lock_contention", zap.Error(err))
		return domain.Transfer{}, err
	default:
		log.Error("settlement.tx_failed", zap.Error(err))
		return domain.Transfer{}, ErrInternal
	}

	s.metrics.TransferSettled(out.TargetCurrency, out.USDAmount)
	log.Info("settlement.settled", zap.Int64("transfer_id", out.ID), zap.String("usd_amount", out.USDAmount.String()))
	if err := s.events.PublishTransferSettled(ctx, out); err != nil {
		log.Warn("settlement.publish_failed", zap.Int64("transfer_id", out.ID), zap.Error(err))
	}
	return out, nil
}

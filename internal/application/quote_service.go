package application

import (
	"context"
	"errors"
	"fmt"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type QuoteService struct {
	quotes   QuoteRepo
	rates    RateSource
	settings QuoteSettings
	idem     IdempotencyStore
	metrics  Metrics
	clock    Clock
	idgen    IDGen
	log      *zap.Logger
}

type QuoteOption func(*QuoteService)

func WithQuoteClock(c Clock) QuoteOption             { return func(s *QuoteService) { s.clock = c } }
func WithQuoteIDGen(g IDGen) QuoteOption             { return func(s *QuoteService) { s.idgen = g } }
func WithQuoteLogger(l *zap.Logger) QuoteOption      { return func(s *QuoteService) { s.log = l } }
func WithQuoteMetrics(m Metrics) QuoteOption         { return func(s *QuoteService) { s.metrics = m } }
func WithIdempotency(i IdempotencyStore) QuoteOption { return func(s *QuoteService) { s.idem = i } }

func NewQuoteService(quotes QuoteRepo, rates RateSource, settings QuoteSettings, opts ...QuoteOption) *QuoteService {
	s := &QuoteService{
		quotes:   quotes,
		rates:    rates,
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idgen == nil {
		s.idgen = defaultIDGen{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	if s.metrics == nil {
		s.metrics = NoopMetrics{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// RequestQuote prices amount (source minor units) in target at the current
// rates and persists the resulting quote.
func (s *QuoteService) RequestQuote(ctx context.Context, userID string, amount int64, target domain.Currency) (domain.Quote, error) {
	log := s.log.With(
		zap.String("operation", "RequestQuote"),
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("target_currency", string(target)),
	)
	if amount <= 0 {
		return domain.Quote{}, fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidAmount)
	}
	targetDigits, ok := s.settings.fractionDigits(target)
	if !ok {
		return domain.Quote{}, fmt.Errorf("%w: %w: %q", ErrValidation, domain.ErrUnsupportedCurrency, target)
	}
	usdDigits, ok := s.settings.fractionDigits(domain.USD)
	if !ok {
		log.Error("quote.missing_usd_precision")
		return domain.Quote{}, ErrConfiguration
	}

	start := s.clock.Now()
	rates, err := s.rates.FetchRates(ctx)
	s.metrics.RateFetch(s.clock.Now().Sub(start), err)
	if err != nil {
		log.Warn("quote.rate_fetch_failed", zap.Error(err))
		if errors.Is(err, ErrUpstream) {
			return domain.Quote{}, err
		}
		return domain.Quote{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	rate, usdRate := rates[target], rates[domain.USD]
	if !rate.IsPositive() || !usdRate.IsPositive() {
		log.Warn("quote.rate_missing")
		return domain.Quote{}, fmt.Errorf("%w: no usable rate for %s", ErrUpstream, target)
	}

	fee, err := s.settings.Fees.Calculate(amount, target)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	net := decimal.NewFromInt(amount).Sub(fee)
	targetAmount := net.DivRound(rate, targetDigits)
	usdAmount := net.DivRound(usdRate, usdDigits)
	if !targetAmount.IsPositive() {
		return domain.Quote{}, fmt.Errorf("%w: %w: target amount %s", ErrValidation, ErrNegativeAmount, targetAmount)
	}

	now := s.clock.Now()
	q := domain.Quote{
		ID:              s.idgen.NewID(),
		UserID:          userID,
		Amount:          amount,
		TargetCurrency:  target,
		ExchangeRate:    rate,
		USDExchangeRate: usdRate,
		Fee:             fee,
		TargetAmount:    targetAmount,
		USDAmount:       usdAmount,
		ExpireTime:      now.Add(s.settings.Lifetime),
		CreatedAt:       now,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		log.Error("quote.persist_failed", zap.String("quote_id", q.ID), zap.Error(err))
		return domain.Quote{}, ErrInternal
	}
	s.metrics.QuoteIssued(target)
	log.Info("quote.issued",
		zap.String("quote_id", q.ID),
		zap.String("target_amount", q.TargetAmount.String()),
		zap.Time("expire_time", q.ExpireTime),
	)
	return q, nil
}

// RequestQuoteOnce reserves key for userID before issuing a quote, so a
// replayed client request does not create a second quote. A failed attempt
// releases the key and the client may retry with it. An empty key skips the
// reservation.
func (s *QuoteService) RequestQuoteOnce(ctx context.Context, key, userID string, amount int64, target domain.Currency) (domain.Quote, error) {
	if key == "" {
		return s.RequestQuote(ctx, userID, amount, target)
	}
	reserved := "quote:" + userID + ":" + key
	ok, err := s.idem.TryReserve(ctx, reserved)
	if err != nil {
		s.log.Error("quote.idempotency_failed", zap.String("user_id", userID), zap.Error(err))
		return domain.Quote{}, ErrInternal
	}
	if !ok {
		return domain.Quote{}, fmt.Errorf("%w: duplicate idempotency key", ErrConflict)
	}
	q, err := s.RequestQuote(ctx, userID, amount, target)
	if err != nil {
		if rerr := s.idem.Release(context.WithoutCancel(ctx), reserved); rerr != nil {
			s.log.Warn("quote.idempotency_release_failed", zap.String("user_id", userID), zap.Error(rerr))
		}
		return domain.Quote{}, err
	}
	return q, nil
}

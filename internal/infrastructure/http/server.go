package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/auth"
	"remittance-service/internal/infrastructure/logx"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const idempotencyHeader = "X-Idempotency-Key"

// Authenticator resolves a bearer token into the calling identity.
type Authenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

type Server struct {
	quotes      *application.QuoteService
	settlements *application.SettlementService
	auth        Authenticator
	validate    *validator.Validate
	ping        func(ctx context.Context) error
	metrics     http.Handler
}

func NewServer(quotes *application.QuoteService, settlements *application.SettlementService, authn Authenticator) *Server {
	return &Server{
		quotes:      quotes,
		settlements: settlements,
		auth:        authn,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetReadyCheck installs the check behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// SetMetricsHandler mounts h on /metrics.
func (s *Server) SetMetricsHandler(h http.Handler) { s.metrics = h }

type quoteRequest struct {
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	TargetCurrency string `json:"targetCurrency" validate:"required"`
}

type quoteBody struct {
	QuoteID      string      `json:"quoteId"`
	ExchangeRate json.Number `json:"exchangeRate"`
	ExpireTime   time.Time   `json:"expireTime"`
	TargetAmount json.Number `json:"targetAmount"`
}

type transferRequest struct {
	QuoteID string `json:"quoteId" validate:"required"`
}

type transferBody struct {
	TransferID      int64       `json:"transferId"`
	QuoteID         string      `json:"quoteId"`
	SourceAmount    int64       `json:"sourceAmount"`
	Fee             json.Number `json:"fee"`
	TargetCurrency  string      `json:"targetCurrency"`
	ExchangeRate    json.Number `json:"exchangeRate"`
	USDExchangeRate json.Number `json:"usdExchangeRate"`
	TargetAmount    json.Number `json:"targetAmount"`
	USDAmount       json.Number `json:"usdAmount"`
	RequestedAt     time.Time   `json:"requestedAt"`
}

// validateRequest decodes the JSON body into dst and checks its struct tags.
func (s *Server) validateRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", application.ErrValidation)
	}
	if err := s.validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", application.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", application.ErrValidation, err)
	}
	return nil
}

func (s *Server) RequestQuote(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	var req quoteRequest
	if err := s.validateRequest(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	target, err := domain.ParseCurrency(req.TargetCurrency)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", application.ErrValidation, err))
		return
	}
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	q, err := s.quotes.RequestQuoteOnce(r.Context(), key, id.UserID, req.Amount, target)
	if err != nil {
		logx.WithFields(r.Context()).Info("quote.rejected", zap.String("user_id", id.UserID), zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]quoteBody{"quote": {
		QuoteID:      q.ID,
		ExchangeRate: json.Number(q.ExchangeRate.String()),
		ExpireTime:   q.ExpireTime.UTC(),
		TargetAmount: json.Number(q.TargetAmount.String()),
	}})
}

func (s *Server) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	var req transferRequest
	if err := s.validateRequest(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	t, err := s.settlements.RequestTransfer(r.Context(), id.UserID, id.Class, req.QuoteID)
	if err != nil {
		logx.WithFields(r.Context()).Info("transfer.rejected",
			zap.String("user_id", id.UserID),
			zap.String("quote_id", req.QuoteID),
			zap.Error(err),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]transferBody{"transfer": {
		TransferID:      t.ID,
		QuoteID:         t.QuoteID,
		SourceAmount:    t.SourceAmount,
		Fee:             json.Number(t.Fee.String()),
		TargetCurrency:  string(t.TargetCurrency),
		ExchangeRate:    json.Number(t.ExchangeRate.String()),
		USDExchangeRate: json.Number(t.USDExchangeRate.String()),
		TargetAmount:    json.Number(t.TargetAmount.String()),
		USDAmount:       json.Number(t.USDAmount.String()),
		RequestedAt:     t.RequestedAt.UTC(),
	}})
}

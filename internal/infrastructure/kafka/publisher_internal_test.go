package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"remittance-service/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error { return nil }

func sampleTransfer() domain.Transfer {
	return domain.Transfer{
		ID:              7,
		QuoteID:         "q-7",
		UserID:          "user-1",
		SourceAmount:    1_000_000,
		Fee:             decimal.RequireFromString("3000"),
		TargetCurrency:  domain.USD,
		ExchangeRate:    decimal.RequireFromString("1.2342"),
		USDExchangeRate: decimal.RequireFromString("1.2342"),
		TargetAmount:    decimal.RequireFromString("807810.73"),
		USDAmount:       decimal.RequireFromString("807810.73"),
		RequestedAt:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishTransferSettled(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w, timeout: time.Second}

	require.NoError(t, p.PublishTransferSettled(context.Background(), sampleTransfer()))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	require.Equal(t, "user-1", string(msg.Key))

	var ev TransferSettledEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.Equal(t, int64(7), ev.TransferID)
	require.Equal(t, "807810.73", ev.TargetAmount)
	require.Equal(t, "USD", ev.TargetCurrency)
	require.Equal(t, "7", string(msg.Headers[1].Value))
}

func TestPublishTransferSettled_WriteError(t *testing.T) {
	w := &captureWriter{err: errors.New("no brokers")}
	p := &Publisher{writer: w}

	err := p.PublishTransferSettled(context.Background(), sampleTransfer())
	require.ErrorContains(t, err, "no brokers")
}

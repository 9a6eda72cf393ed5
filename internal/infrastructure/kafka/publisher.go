package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// TransferSettledEvent is the message body published after a settlement.
type TransferSettledEvent struct {
	TransferID      int64     `json:"transferId"`
	QuoteID         string    `json:"quoteId"`
	UserID          string    `json:"userId"`
	SourceAmount    int64     `json:"sourceAmount"`
	Fee             string    `json:"fee"`
	TargetCurrency  string    `json:"targetCurrency"`
	ExchangeRate    string    `json:"exchangeRate"`
	USDExchangeRate string    `json:"usdExchangeRate"`
	TargetAmount    string    `json:"targetAmount"`
	USDAmount       string    `json:"usdAmount"`
	RequestedAt     time.Time `json:"requestedAt"`
}

func NewTransferSettledEvent(t domain.Transfer) TransferSettledEvent {
	return TransferSettledEvent{
		TransferID:      t.ID,
		QuoteID:         t.QuoteID,
		UserID:          t.UserID,
		SourceAmount:    t.SourceAmount,
		Fee:             t.Fee.String(),
		TargetCurrency:  string(t.TargetCurrency),
		ExchangeRate:    t.ExchangeRate.String(),
		USDExchangeRate: t.USDExchangeRate.String(),
		TargetAmount:    t.TargetAmount.String(),
		USDAmount:       t.USDAmount.String(),
		RequestedAt:     t.RequestedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes TransferSettled events keyed by user id, so one user's
// settlements stay ordered within a partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

var _ application.EventPublisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string, timeout time.Duration) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		timeout: timeout,
	}
}

func BuildMessage(t domain.Transfer) (kafka.Message, error) {
	v, err := json.Marshal(NewTransferSettledEvent(t))
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(t.UserID),
		Value: v,
		Time:  t.RequestedAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("TransferSettled")},
			{Key: "transfer_id", Value: []byte(strconv.FormatInt(t.ID, 10))},
		},
	}, nil
}

func (p *Publisher) PublishTransferSettled(ctx context.Context, t domain.Transfer) error {
	msg, err := BuildMessage(t)
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write transfer settled %d: %w", t.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.writer.Close() }

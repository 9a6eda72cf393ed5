package worker

import (
	"context"
	"errors"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("event queue full")

// ChanPublisher decouples settlement from the broker: events are queued
// in memory and forwarded by Start. Queued events are lost on crash.
type ChanPublisher struct {
	next    application.EventPublisher
	jobs    chan domain.Transfer
	timeout time.Duration
}

var _ application.EventPublisher = (*ChanPublisher)(nil)

func NewChanPublisher(next application.EventPublisher, buffer int, timeout time.Duration) *ChanPublisher {
	return &ChanPublisher{next: next, jobs: make(chan domain.Transfer, buffer), timeout: timeout}
}

// PublishTransferSettled enqueues t without blocking.
func (w *ChanPublisher) PublishTransferSettled(_ context.Context, t domain.Transfer) error {
	select {
	case w.jobs <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start forwards queued events until ctx is done, then drains what is left
// using a fresh context bounded by the publish timeout.
func (w *ChanPublisher) Start(ctx context.Context) {
	log := logx.L().With(zap.String("worker", "chan_publisher"))
	for {
		select {
		case <-ctx.Done():
			w.drain(log)
			log.Info("chan_worker.stop")
			return
		case t := <-w.jobs:
			w.processOne(ctx, log, t)
		}
	}
}

func (w *ChanPublisher) drain(log *zap.Logger) {
	for {
		select {
		case t := <-w.jobs:
			w.processOne(context.Background(), log, t)
		default:
			return
		}
	}
}

func (w *ChanPublisher) processOne(ctx context.Context, log *zap.Logger, t domain.Transfer) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("chan_worker.panic", zap.Any("r", r), zap.Int64("transfer_id", t.ID))
		}
	}()
	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.next.PublishTransferSettled(c, t); err != nil {
		log.Warn("chan_worker.publish_failed", zap.Int64("transfer_id", t.ID), zap.Error(err))
	}
}

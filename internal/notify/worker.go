package notify

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Deliverer handles one dequeued notification.
type Deliverer interface {
	Deliver(ctx context.Context, n ContactNotification) error
}

// RelayWorker drains the relay queue and delivers each notification.
// Messages are deleted after one delivery attempt; redelivering would repeat
// the channels that already succeeded.
type RelayWorker struct {
	queue       Queue
	deliverer   Deliverer
	timeout     time.Duration
	batchSize   int
	waitSeconds int
	logger      *logging.Logger
}

// NewRelayWorker creates a worker.
func NewRelayWorker(queue Queue, deliverer Deliverer, timeout time.Duration, logger *logging.Logger) *RelayWorker {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RelayWorker{
		queue:       queue,
		deliverer:   deliverer,
		timeout:     timeout,
		batchSize:   10,
		waitSeconds: 20,
		logger:      logger,
	}
}

// Run processes messages until ctx is cancelled.
func (w *RelayWorker) Run(ctx context.Context) {
	w.logger.Info("contact relay worker started")
	defer w.logger.Info("contact relay worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("contact relay receive failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *RelayWorker) handle(ctx context.Context, msg QueueMessage) {
	defer func() {
		if err := w.queue.Delete(context.WithoutCancel(ctx), msg.ReceiptHandle); err != nil {
			w.logger.Error("contact relay delete failed", "message_id", msg.ID, "error", err)
		}
	}()

	n, err := decodeNotification(msg.Body)
	if err != nil {
		w.logger.Error("dropping malformed contact notification", "message_id", msg.ID, "error", err)
		return
	}
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	if err := w.deliverer.Deliver(deliverCtx, n); err != nil {
		w.logger.Warn("contact notification partially delivered", "notification_id", n.ID, "error", err)
	}
}

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// QueueRelay hands contact notifications to a queue without blocking the
// caller. A slow or failing queue only produces a log line.
type QueueRelay struct {
	queue   Queue
	timeout time.Duration
	logger  *logging.Logger
	wg      sync.WaitGroup
}

// NewQueueRelay creates a relay over queue with a per-enqueue timeout.
func NewQueueRelay(queue Queue, timeout time.Duration, logger *logging.Logger) *QueueRelay {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QueueRelay{queue: queue, timeout: timeout, logger: logger}
}

// Notify enqueues n in the background and returns immediately.
func (r *QueueRelay) Notify(ctx context.Context, n ContactNotification) {
	encoded, body, err := encodeNotification(n)
	if err != nil {
		r.logger.Error("contact relay encode failed", "sender_id", n.SenderID, "error", err)
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.queue.Send(sendCtx, body); err != nil {
			r.logger.Error("contact relay enqueue failed", "notification_id", encoded.ID, "sender_id", encoded.SenderID, "error", err)
			return
		}
		r.logger.Debug("contact relay enqueued", "notification_id", encoded.ID)
	}()
}

// Wait blocks until in-flight enqueues finish.
func (r *QueueRelay) Wait() {
	r.wg.Wait()
}

package webchat

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

var errConnClosed = errors.New("webchat: connection closed")

// connDispatcher delivers replies over one visitor's websocket. The reply is
// tagged with the client-side id of the message being answered.
type connDispatcher struct {
	conn *websocket.Conn

	mu       sync.Mutex
	inflight string
	closed   bool
}

func newConnDispatcher(conn *websocket.Conn) *connDispatcher {
	return &connDispatcher{conn: conn}
}

func (d *connDispatcher) answering(id string) {
	d.mu.Lock()
	d.inflight = id
	d.mu.Unlock()
}

// Send implements conversation.Dispatcher.
func (d *connDispatcher) Send(ctx context.Context, _ string, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errConnClosed
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetWriteDeadline(deadline)
		defer d.conn.SetWriteDeadline(time.Time{})
	}
	return websocket.JSON.Send(d.conn, OutboundMessage{Type: "reply", ID: d.inflight, Reply: text})
}

func (d *connDispatcher) write(msg OutboundMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errConnClosed
	}
	return websocket.JSON.Send(d.conn, msg)
}

func (d *connDispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// bufferDispatcher captures the reply for the synchronous HTTP endpoint.
type bufferDispatcher struct {
	text string
}

func (d *bufferDispatcher) Send(_ context.Context, _ string, text string) error {
	d.text = text
	return nil
}

package conversation

import (
	"context"

	"github.com/wolfman30/hijama-dm-responder/internal/notify"
)

// Dispatcher delivers a reply to the originating channel. It is called at
// most once per resolved reply.
type Dispatcher interface {
	Send(ctx context.Context, recipientID, text string) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, recipientID, text string) error

func (f DispatcherFunc) Send(ctx context.Context, recipientID, text string) error {
	return f(ctx, recipientID, text)
}

// ContactRelay forwards captured phone numbers to staff. Notify must return
// promptly; delivery happens in the background.
type ContactRelay interface {
	Notify(ctx context.Context, n notify.ContactNotification)
}

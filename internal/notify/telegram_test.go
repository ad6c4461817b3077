package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	params []*telego.SendMessageParams
	err    error
}

func (f *fakeTelegram) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &telego.Message{MessageID: len(f.params)}, nil
}

func TestTelegramNotifier_NotifyContact(t *testing.T) {
	bot := &fakeTelegram{}
	notifier := newTelegramNotifier(bot, -100123, nil)

	err := notifier.NotifyContact(context.Background(), ContactNotification{
		SenderID: "ig-42",
		Phone:    "+998901112233",
		Platform: "instagram",
	})
	require.NoError(t, err)
	require.Len(t, bot.params, 1)
	assert.Equal(t, int64(-100123), bot.params[0].ChatID.ID)
	assert.True(t, strings.Contains(bot.params[0].Text, "+998901112233"))
	assert.Equal(t, "telegram", notifier.Name())
}

func TestTelegramNotifier_Error(t *testing.T) {
	notifier := newTelegramNotifier(&fakeTelegram{err: errors.New("forbidden")}, 1, nil)
	err := notifier.NotifyContact(context.Background(), ContactNotification{Phone: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestNewTelegramNotifier_RequiresChatID(t *testing.T) {
	_, err := NewTelegramNotifier("123:abc", 0, nil)
	require.Error(t, err)
}

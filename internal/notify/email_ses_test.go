package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{FromEmail: "a@example.com"}, nil))
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "bot@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com", Subject: "New contact", Body: "Phone: 1"})
	require.NoError(t, err)

	require.NotNil(t, api.input)
	assert.Equal(t, "Hijama Assistant <bot@example.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"staff@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "New contact", aws.ToString(api.input.Content.Simple.Subject.Data))
	assert.Equal(t, "Phone: 1", aws.ToString(api.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, api.input.Content.Simple.Body.Html)
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "bot@example.com"}, nil)
	err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

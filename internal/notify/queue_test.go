package notify

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNotification_AssignsID(t *testing.T) {
	n, body, err := encodeNotification(ContactNotification{SenderID: "s1", Phone: "+998901112233"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	decoded, err := decodeNotification(body)
	require.NoError(t, err)
	assert.Equal(t, n.ID, decoded.ID)
	assert.Equal(t, "+998901112233", decoded.Phone)
}

func TestDecodeNotification_Malformed(t *testing.T) {
	_, err := decodeNotification("{not json")
	require.Error(t, err)
}

func TestMemoryQueue_SendReceive(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()
	require.NoError(t, q.Send(ctx, "a"))
	require.NoError(t, q.Send(ctx, "b"))
	assert.Equal(t, 2, q.Len())

	msgs, err := q.Receive(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Body)
	assert.Equal(t, "b", msgs[1].Body)
	assert.NotEmpty(t, msgs[0].ReceiptHandle)
	assert.NoError(t, q.Delete(ctx, msgs[0].ReceiptHandle))
}

func TestMemoryQueue_ReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeSQS struct {
	sent    []string
	deleted []string
	inbox   []sqstypes.Message
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("m")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	n := int(in.MaxNumberOfMessages)
	if n > len(f.inbox) {
		n = len(f.inbox)
	}
	out := f.inbox[:n]
	f.inbox = f.inbox[n:]
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue(t *testing.T) {
	api := &fakeSQS{inbox: []sqstypes.Message{
		{MessageId: aws.String("1"), Body: aws.String("payload"), ReceiptHandle: aws.String("rh-1")},
	}}
	q := NewSQSQueue(api, "https://sqs.local/relay")
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "hello"))
	assert.Equal(t, []string{"hello"}, api.sent)

	msgs, err := q.Receive(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, QueueMessage{ID: "1", Body: "payload", ReceiptHandle: "rh-1"}, msgs[0])

	require.NoError(t, q.Delete(ctx, "rh-1"))
	require.NoError(t, q.Delete(ctx, ""))
	assert.Equal(t, []string{"rh-1"}, api.deleted)
}

func TestNewSQSQueue_PanicsOnMissingConfig(t *testing.T) {
	assert.Panics(t, func() { NewSQSQueue(nil, "url") })
	assert.Panics(t, func() { NewSQSQueue(&fakeSQS{}, "") })
}

func sqsMessage(id, body, receipt string) sqstypes.Message {
	return sqstypes.Message{MessageId: aws.String(id), Body: aws.String(body), ReceiptHandle: aws.String(receipt)}
}

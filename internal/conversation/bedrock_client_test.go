package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: "Hijoma "},
				&brtypes.ContentBlockMemberText{Value: "xavfsiz."},
			},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(40), OutputTokens: aws.Int32(5)},
	}}
	client := NewBedrockLLMClient(api, "anthropic.default")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"persona", " ", "Reply in Uzbek."},
		User:        "Hijoma xavfsizmi?",
		MaxTokens:   256,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hijoma xavfsiz.", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int32(40), resp.InputTokens)
	assert.Equal(t, int32(5), resp.OutputTokens)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.default", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.input.Messages[0].Role)
	assert.Equal(t, int32(256), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	_, err := NewBedrockLLMClient(&fakeConverse{}, "").Complete(context.Background(), LLMRequest{User: "q"})
	assert.ErrorContains(t, err, "model id")

	_, err = NewBedrockLLMClient(&fakeConverse{}, "m").Complete(context.Background(), LLMRequest{User: " "})
	assert.ErrorContains(t, err, "user message")

	_, err = NewBedrockLLMClient(&fakeConverse{err: errors.New("throttled")}, "m").Complete(context.Background(), LLMRequest{User: "q"})
	assert.ErrorContains(t, err, "throttled")

	_, err = NewBedrockLLMClient(&fakeConverse{out: &bedrockruntime.ConverseOutput{}}, "m").Complete(context.Background(), LLMRequest{User: "q"})
	assert.ErrorContains(t, err, "message output")

	assert.Panics(t, func() { NewBedrockLLMClient(nil, "m") })
}

func TestBedrockLLMClient_ZeroTemperatureKeepsModelDefault(t *testing.T) {
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "ok"}},
		}},
	}}
	client := NewBedrockLLMClient(api, "anthropic.default")

	_, err := client.Complete(context.Background(), LLMRequest{User: "salom"})
	require.NoError(t, err)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Nil(t, api.input.InferenceConfig.Temperature)
	assert.Nil(t, api.input.InferenceConfig.MaxTokens)
}

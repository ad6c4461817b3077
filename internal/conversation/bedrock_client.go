package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLMClient implements LLMClient with the Bedrock Converse API.
type BedrockLLMClient struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockLLMClient(api bedrockConverseAPI, modelID string) *BedrockLLMClient {
	if api == nil {
		panic("conversation: bedrock converse client cannot be nil")
	}
	return &BedrockLLMClient{api: api, modelID: modelID}
}

func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	modelID := req.Model
	if strings.TrimSpace(modelID) == "" {
		modelID = c.modelID
	}
	if strings.TrimSpace(modelID) == "" {
		return LLMResponse{}, errors.New("conversation: bedrock model id is required")
	}
	if strings.TrimSpace(req.User) == "" {
		return LLMResponse{}, errors.New("conversation: bedrock requires a user message")
	}

	system := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: block})
		}
	}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	// Zero temperature leaves the model default.
	if req.Temperature > 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		System:  system,
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: req.User}},
		}},
		InferenceConfig: inference,
	})
	if err != nil {
		return LLMResponse{}, err
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return LLMResponse{}, errors.New("conversation: bedrock response did not include a message output")
	}
	var text strings.Builder
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text.WriteString(tb.Value)
		}
	}

	resp := LLMResponse{
		Text:       strings.TrimSpace(text.String()),
		StopReason: string(out.StopReason),
	}
	if out.Usage != nil {
		resp.InputTokens = aws.ToInt32(out.Usage.InputTokens)
		resp.OutputTokens = aws.ToInt32(out.Usage.OutputTokens)
	}
	return resp, nil
}

package conversation

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureGeminiModel(t *testing.T) {
	t.Run("zero temperature keeps model default", func(t *testing.T) {
		model := &genai.GenerativeModel{}
		configureGeminiModel(model, LLMRequest{User: "salom"})
		assert.Nil(t, model.Temperature)
		assert.Nil(t, model.MaxOutputTokens)
		assert.Nil(t, model.SystemInstruction)
	})

	t.Run("explicit settings are applied", func(t *testing.T) {
		model := &genai.GenerativeModel{}
		configureGeminiModel(model, LLMRequest{
			System:      []string{"persona", "Reply in Uzbek."},
			User:        "salom",
			MaxTokens:   256,
			Temperature: 0.3,
		})
		require.NotNil(t, model.Temperature)
		assert.InDelta(t, 0.3, *model.Temperature, 0.0001)
		require.NotNil(t, model.MaxOutputTokens)
		assert.Equal(t, int32(256), *model.MaxOutputTokens)
		require.NotNil(t, model.SystemInstruction)
		assert.Equal(t, genai.Text("persona\n\nReply in Uzbek."), model.SystemInstruction.Parts[0])
	})
}

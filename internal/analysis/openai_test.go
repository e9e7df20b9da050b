// internal/analysis/openai_test.go
package analysis

import (
	"testing"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
	"github.com/xkilldash9x/sitelens/internal/config"
)

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(config.LLMConfig{Model: "gpt-4o"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewOpenAIClient_DefaultsTextBudget(t *testing.T) {
	c, err := NewOpenAIClient(config.LLMConfig{Model: "gpt-4o", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTextBudget, c.budget)
}

func TestWebSearchTool_ContextSizeMapping(t *testing.T) {
	tests := []struct {
		size schemas.ContextSize
		want responses.WebSearchToolSearchContextSize
	}{
		{schemas.ContextSizeLow, responses.WebSearchToolSearchContextSizeLow},
		{schemas.ContextSizeMedium, responses.WebSearchToolSearchContextSizeMedium},
		{schemas.ContextSizeHigh, responses.WebSearchToolSearchContextSizeHigh},
	}
	for _, tc := range tests {
		t.Run(string(tc.size), func(t *testing.T) {
			tool := webSearchTool(schemas.WebSearchConfig{ContextSize: tc.size})
			assert.Equal(t, tc.want, tool.SearchContextSize)
		})
	}
}

func TestWebSearchTool_UnsetContextSizeStaysUnset(t *testing.T) {
	tool := webSearchTool(schemas.WebSearchConfig{})
	assert.Empty(t, tool.SearchContextSize)
	assert.Equal(t, responses.WebSearchToolTypeWebSearch, tool.Type)
}

func TestWebSearchTool_LocationFieldByField(t *testing.T) {
	tool := webSearchTool(schemas.WebSearchConfig{
		Location: &schemas.UserLocation{City: "Berlin", Timezone: "Europe/Berlin"},
	})

	assert.True(t, tool.UserLocation.City.Valid())
	assert.Equal(t, "Berlin", tool.UserLocation.City.Value)
	assert.True(t, tool.UserLocation.Timezone.Valid())
	assert.False(t, tool.UserLocation.Country.Valid())
	assert.False(t, tool.UserLocation.Region.Valid())
}

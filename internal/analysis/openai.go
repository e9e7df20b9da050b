// internal/analysis/openai.go
package analysis

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
	"github.com/xkilldash9x/sitelens/internal/config"
)

// OpenAIClient implements schemas.Generator against the OpenAI API. The
// standard mode uses chat completions; the augmented mode uses the
// Responses API with the web-search tool.
type OpenAIClient struct {
	client openai.Client
	model  string
	budget int
	logger *zap.Logger
}

var _ schemas.Generator = (*OpenAIClient)(nil)

// NewOpenAIClient initializes the generation service client.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	budget := cfg.TextBudget
	if budget <= 0 {
		budget = DefaultTextBudget
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		budget: budget,
		logger: logger.Named("generator.openai"),
	}, nil
}

// Generate runs exactly one of the two request modes, selected by the
// presence of a web-search configuration. Failures are wrapped in
// *GenerationError; the mode choice is never retried under the other mode.
func (c *OpenAIClient) Generate(ctx context.Context, in schemas.GenerationInput) (*schemas.GenerationOutput, error) {
	text := Truncate(in.PageText, c.budget)

	if in.WebSearch != nil {
		return c.generateAugmented(ctx, in, text, *in.WebSearch)
	}
	return c.generateStandard(ctx, in, text)
}

// generateStandard sends the fixed-role instruction plus the page material
// as a conversational request.
func (c *OpenAIClient) generateStandard(ctx context.Context, in schemas.GenerationInput, text string) (*schemas.GenerationOutput, error) {
	c.logger.Debug("Requesting standard analysis.", zap.String("model", c.model))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildUserPrompt(in.AnalysisType, text, in.Styles)),
		},
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &GenerationError{Err: fmt.Errorf("empty completion response")}
	}

	return &schemas.GenerationOutput{Analysis: resp.Choices[0].Message.Content}, nil
}

// generateAugmented sends a single tool-augmented input that may consult
// live web search results, and maps any URL-citation annotations into the
// normalized citation sequence.
func (c *OpenAIClient) generateAugmented(ctx context.Context, in schemas.GenerationInput, text string, ws schemas.WebSearchConfig) (*schemas.GenerationOutput, error) {
	c.logger.Debug("Requesting web-search augmented analysis.",
		zap.String("model", c.model),
		zap.String("context_size", string(ws.ContextSize)))

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(buildAugmentedInput(in.URL, in.AnalysisType, text, in.Styles)),
		},
		Tools: []responses.ToolUnionParam{{
			OfWebSearch: webSearchTool(ws),
		}},
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	analysis := resp.OutputText()
	if analysis == "" {
		return nil, &GenerationError{Err: fmt.Errorf("empty response output")}
	}

	return &schemas.GenerationOutput{
		Analysis:  analysis,
		Citations: mapCitations(resp),
	}, nil
}

// webSearchTool translates the tagged configuration into the provider's
// tool parameters. An unset context size stays unset so the service picks
// its own default; location fields absent from input are omitted.
func webSearchTool(ws schemas.WebSearchConfig) *responses.WebSearchToolParam {
	tool := &responses.WebSearchToolParam{
		Type: responses.WebSearchToolTypeWebSearch,
	}

	switch ws.ContextSize {
	case schemas.ContextSizeLow:
		tool.SearchContextSize = responses.WebSearchToolSearchContextSizeLow
	case schemas.ContextSizeMedium:
		tool.SearchContextSize = responses.WebSearchToolSearchContextSizeMedium
	case schemas.ContextSizeHigh:
		tool.SearchContextSize = responses.WebSearchToolSearchContextSizeHigh
	}

	if loc := ws.Location; loc != nil {
		userLoc := responses.WebSearchToolUserLocationParam{}
		if loc.Country != "" {
			userLoc.Country = openai.String(loc.Country)
		}
		if loc.City != "" {
			userLoc.City = openai.String(loc.City)
		}
		if loc.Region != "" {
			userLoc.Region = openai.String(loc.Region)
		}
		if loc.Timezone != "" {
			userLoc.Timezone = openai.String(loc.Timezone)
		}
		tool.UserLocation = userLoc
	}

	return tool
}

// mapCitations extracts URL-citation annotations from the response output,
// preserving each citation's character span into the analysis text.
func mapCitations(resp *responses.Response) []schemas.Citation {
	var citations []schemas.Citation
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type != "output_text" {
				continue
			}
			for _, ann := range part.Annotations {
				if ann.Type != "url_citation" {
					continue
				}
				citations = append(citations, schemas.Citation{
					URL:        ann.URL,
					Title:      ann.Title,
					StartIndex: int(ann.StartIndex),
					EndIndex:   int(ann.EndIndex),
				})
			}
		}
	}
	return citations
}

// Close releases client resources. The OpenAI client holds no persistent
// connections beyond the transport's idle pool.
func (c *OpenAIClient) Close() error {
	return nil
}

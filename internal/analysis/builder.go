// internal/analysis/builder.go
package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/xkilldash9x/sitelens/api/schemas"
)

// DefaultTextBudget bounds how many characters of page text are included
// in a generation request.
const DefaultTextBudget = 4000

// systemPrompt fixes the role of the generation service for every request.
const systemPrompt = "You are a business analyst and web design expert. " +
	"Analyze the following website content, styles, and provide insights " +
	"about the company and its design approach."

// Truncate bounds text to the first budget characters. The budget counts
// code points, not bytes, so multi-byte text is never cut mid-rune.
// Truncation is silent; text at or under the budget passes through
// unmodified.
func Truncate(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	count := 0
	for i := range text {
		if count == budget {
			return text[:i]
		}
		count++
	}
	return text
}

// BuildWebSearchConfig constructs the web-search tool configuration from
// caller input. Pure: no network, fully testable. An invalid context size
// is omitted entirely so the service falls back to its own default, and
// the location is built field-by-field from whichever fields are present;
// no web search requested means a nil config.
func BuildWebSearchConfig(req schemas.AnalyzeRequest) *schemas.WebSearchConfig {
	if !req.EnableWebSearch {
		return nil
	}

	cfg := &schemas.WebSearchConfig{}

	if size := schemas.ContextSize(req.SearchContextSize); size.Valid() {
		cfg.ContextSize = size
	}

	if req.UserLocation != nil && !req.UserLocation.Empty() {
		loc := *req.UserLocation
		cfg.Location = &loc
	}

	return cfg
}

// BuildUserPrompt assembles the analysis instruction from the requested
// analysis type, the truncated page text, and the serialized style facts.
func BuildUserPrompt(analysisType, text string, styles schemas.StyleFacts) string {
	styleJSON, err := json.Marshal(styles)
	if err != nil {
		// StyleFacts contains only marshalable types; keep the prompt
		// usable regardless.
		styleJSON = []byte("{}")
	}

	return fmt.Sprintf(`Please analyze this website and provide:
1. Company insights
2. Design analysis including:
   - Color scheme analysis
   - Typography analysis
   - Layout analysis
   - Design patterns used
3. A design prompt that could be used to recreate a similar design

Analysis type: %s
Website content: %s
Styles: %s`, analysisType, text, styleJSON)
}

// buildAugmentedInput prepends the target address so the web-search tool
// can ground its findings in the live site.
func buildAugmentedInput(url, analysisType, text string, styles schemas.StyleFacts) string {
	return fmt.Sprintf("%s\n\nWebsite URL: %s\n\n%s", systemPrompt, url, BuildUserPrompt(analysisType, text, styles))
}

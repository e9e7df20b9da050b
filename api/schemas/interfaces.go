// api/schemas/interfaces.go
package schemas

import "context"

// GenerationInput encapsulates everything the text-generation service needs
// for one analysis: the page text (truncated by the service to its own
// budget), the
// extracted style facts serialized into the prompt, and the optional
// web-search augmentation directive. WebSearch being nil selects the
// standard conversational mode; non-nil selects the tool-augmented mode.
type GenerationInput struct {
	URL          string
	AnalysisType string
	PageText     string
	Styles       StyleFacts
	WebSearch    *WebSearchConfig
}

// GenerationOutput is the normalized response of the generation service.
// Citations is nil unless the augmented mode returned attributed sources.
type GenerationOutput struct {
	Analysis  string
	Citations []Citation
}

// Generator defines a standard interface for the text-generation service,
// abstracting the specifics of the underlying provider. The two request
// modes are mutually exclusive per call and are never retried under the
// other mode on failure.
type Generator interface {
	// Generate produces the design critique for the provided input.
	Generate(ctx context.Context, in GenerationInput) (*GenerationOutput, error)
	// Close cleans up any resources held by the client.
	Close() error
}

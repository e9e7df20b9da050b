// api/schemas/schemas.go
package schemas

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ScreenshotType identifies the scope of a single page capture.
type ScreenshotType string

const (
	ScreenshotFullPage    ScreenshotType = "full_page"
	ScreenshotViewport    ScreenshotType = "viewport"
	ScreenshotMainContent ScreenshotType = "main_content"
)

// Screenshot is one named capture of the page. Data is a base64-encoded
// PNG payload.
type Screenshot struct {
	Type ScreenshotType `json:"type"`
	Data string         `json:"data"`
}

// StyleFacts is the best-effort design summary extracted from a page.
// Colors and Fonts are deduplicated, order-irrelevant sequences; Layout
// holds named pixel dimensions for the primary content region when one
// exists. Components is reserved for a future element-level inventory.
type StyleFacts struct {
	Colors     []string       `json:"colors"`
	Fonts      []string       `json:"fonts"`
	Layout     map[string]int `json:"layout"`
	Components []string       `json:"components"`
}

// NewStyleFacts returns an empty but fully materialized StyleFacts. All
// collections are non-nil so the JSON encoding is always {"colors":[],...}
// rather than nulls, even when extraction degraded to nothing.
func NewStyleFacts() StyleFacts {
	return StyleFacts{
		Colors:     []string{},
		Fonts:      []string{},
		Layout:     map[string]int{},
		Components: []string{},
	}
}

// ContextSize controls how much search context the web-search augmentation
// is allowed to pull in.
type ContextSize string

const (
	ContextSizeLow    ContextSize = "low"
	ContextSizeMedium ContextSize = "medium"
	ContextSizeHigh   ContextSize = "high"
)

// Valid reports whether the value is one of the sizes the generation
// service accepts. Anything else must be omitted from the tool
// configuration, not forwarded.
func (c ContextSize) Valid() bool {
	switch c {
	case ContextSizeLow, ContextSizeMedium, ContextSizeHigh:
		return true
	}
	return false
}

// UserLocation is an approximate-location hint for web-search augmentation.
// Every field is optional; absent fields are omitted from the tool
// configuration rather than defaulted.
type UserLocation struct {
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Empty reports whether no field carries a value.
func (l UserLocation) Empty() bool {
	return l.Country == "" && l.City == "" && l.Region == "" && l.Timezone == ""
}

// WebSearchConfig is the tagged configuration for the web-search
// augmentation tool. ContextSize is empty when the caller supplied no
// valid size; Location is nil when no location field was present.
type WebSearchConfig struct {
	ContextSize ContextSize
	Location    *UserLocation
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	URL               string        `json:"url"`
	AnalysisType      string        `json:"analysis_type,omitempty"`
	EnableWebSearch   bool          `json:"enable_web_search,omitempty"`
	SearchContextSize string        `json:"search_context_size,omitempty"`
	UserLocation      *UserLocation `json:"user_location,omitempty"`
}

// Validate checks the request for a usable absolute URL and normalizes
// defaulted fields.
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url must be absolute: '%s'", r.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme: '%s'", u.Scheme)
	}
	if r.AnalysisType == "" {
		r.AnalysisType = "general"
	}
	if r.SearchContextSize == "" {
		r.SearchContextSize = string(ContextSizeMedium)
	}
	return nil
}

// Citation links a character span of the analysis text to an external
// source returned by web-search augmentation.
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// AnalysisResult is the response of POST /analyze.
type AnalysisResult struct {
	URL         string       `json:"url"`
	Analysis    string       `json:"analysis"`
	Styles      StyleFacts   `json:"styles"`
	Screenshots []Screenshot `json:"screenshots"`
	Timestamp   time.Time    `json:"timestamp"`
	Citations   []Citation   `json:"citations,omitempty"`
}

// HealthResponse is the body of GET / and GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// internal/analysis/errors.go
package analysis

import "fmt"

// GenerationError indicates the text-generation call failed or returned an
// unusable response. Fatal to the current request; the other request mode
// is never attempted as a fallback.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

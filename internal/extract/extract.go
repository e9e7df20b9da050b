// internal/extract/extract.go
package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
)

// MainContentSelector designates the primary content region of a page.
const MainContentSelector = "main"

var (
	// hexColorRe matches 3-to-6 digit hex color tokens; the capture group
	// excludes the leading '#'.
	hexColorRe = regexp.MustCompile(`#([0-9a-fA-F]{3,6})`)
	// fontFamilyRe captures the value of a font-family declaration up to
	// the terminating ';' or '}'.
	fontFamilyRe = regexp.MustCompile(`font-family:\s*([^;}]+)`)
)

// LayoutProbe measures elements on the live page. Implemented by the
// browser session; mocked in tests.
type LayoutProbe interface {
	ElementSize(ctx context.Context, selector string) (width, height int, found bool, err error)
}

// Extractor walks a parsed document and the live session to collect a
// best-effort summary of visual design facts. Extraction never fails:
// any sub-step that errors degrades to its absent/default value.
type Extractor struct {
	logger *zap.Logger
}

// New creates a style extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger.Named("style_extractor")}
}

// tokens is the value-or-absent accumulator for one scan sub-step.
type tokens struct {
	colors []string
	fonts  []string
}

// Extract collects deduplicated colors and font declarations from embedded
// style blocks and inline style attributes, plus the rendered dimensions of
// the primary content region when one exists. A page with no styling yields
// empty facts, not an error.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document, probe LayoutProbe) schemas.StyleFacts {
	facts := schemas.NewStyleFacts()
	if doc == nil {
		return facts
	}

	embedded := scanStyleBlocks(doc)
	inline := scanInlineStyles(doc)

	facts.Colors = dedupe(append(embedded.colors, inline.colors...))
	facts.Fonts = dedupe(append(embedded.fonts, inline.fonts...))

	if layout, ok := e.probeLayout(ctx, probe); ok {
		facts.Layout = layout
	}

	return facts
}

// scanStyleBlocks scans the raw text of every embedded <style> element.
func scanStyleBlocks(doc *goquery.Document) tokens {
	var t tokens
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		css := sel.Text()
		if css == "" {
			return
		}
		t.colors = append(t.colors, matchGroups(hexColorRe, css)...)
		t.fonts = append(t.fonts, matchGroups(fontFamilyRe, css)...)
	})
	return t
}

// scanInlineStyles scans every element carrying a style attribute.
func scanInlineStyles(doc *goquery.Document) tokens {
	var t tokens
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		attr, ok := sel.Attr("style")
		if !ok || attr == "" {
			return
		}
		t.colors = append(t.colors, matchGroups(hexColorRe, attr)...)
		t.fonts = append(t.fonts, matchGroups(fontFamilyRe, attr)...)
	})
	return t
}

// probeLayout measures the primary content region. Absence of the region
// and probe failures both degrade to "no layout facts"; neither may
// propagate past the extractor boundary.
func (e *Extractor) probeLayout(ctx context.Context, probe LayoutProbe) (map[string]int, bool) {
	if probe == nil {
		return nil, false
	}

	width, height, found, err := probe.ElementSize(ctx, MainContentSelector)
	if err != nil {
		e.logger.Debug("Layout probe failed; continuing without layout facts.", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	return map[string]int{
		"main_width":  width,
		"main_height": height,
	}, true
}

// matchGroups returns the first capture group of every match, trimmed.
func matchGroups(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// dedupe materializes a deduplicated, sorted sequence. The scan encounters
// duplicates across style sources; output order is deterministic so equal
// pages produce equal facts.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Text returns the page's visible text content, whitespace-normalized the
// way the analysis prompt expects it.
func Text(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

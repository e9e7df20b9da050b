// internal/extract/extract_test.go
package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
)

// fakeProbe implements LayoutProbe for tests.
type fakeProbe struct {
	width, height int
	found         bool
	err           error
	calls         int
	lastSelector  string
}

func (f *fakeProbe) ElementSize(_ context.Context, selector string) (int, int, bool, error) {
	f.calls++
	f.lastSelector = selector
	return f.width, f.height, f.found, f.err
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtract_CollectsColorsAndFontsFromStyleBlocks(t *testing.T) {
	doc := parseDoc(t, `
		<html><head><style>
			body { color: #fff; background: #1a2b3c; }
			h1 { font-family: Arial, sans-serif; color: #FFF; }
		</style></head><body></body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, nil)

	assert.ElementsMatch(t, []string{"fff", "1a2b3c", "FFF"}, facts.Colors)
	assert.Equal(t, []string{"Arial, sans-serif"}, facts.Fonts)
}

func TestExtract_CollectsInlineStyles(t *testing.T) {
	doc := parseDoc(t, `
		<html><body>
			<div style="color: #abc; font-family: Georgia, serif">x</div>
			<p style="background: #abcdef">y</p>
		</body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, nil)

	assert.ElementsMatch(t, []string{"abc", "abcdef"}, facts.Colors)
	assert.Equal(t, []string{"Georgia, serif"}, facts.Fonts)
}

func TestExtract_DeduplicatesAcrossSources(t *testing.T) {
	// The same color and font repeat in a style block and inline.
	doc := parseDoc(t, `
		<html><head><style>
			.a { color: #c0ffee; font-family: Inter; }
			.b { color: #c0ffee; }
		</style></head><body>
			<div style="color: #c0ffee; font-family: Inter">x</div>
		</body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, nil)

	assert.Equal(t, []string{"c0ffee"}, facts.Colors)
	assert.Equal(t, []string{"Inter"}, facts.Fonts)
}

func TestExtract_OutputIsSortedDeterministically(t *testing.T) {
	doc := parseDoc(t, `<html><head><style>
		.z { color: #fff; } .a { color: #000; } .m { color: #aaa; }
	</style></head><body></body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, nil)
	assert.Equal(t, []string{"000", "aaa", "fff"}, facts.Colors)
}

func TestExtract_UnstyledPageYieldsEmptyFacts(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>plain text only</p></body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, &fakeProbe{found: false})

	assert.Equal(t, schemas.StyleFacts{
		Colors:     []string{},
		Fonts:      []string{},
		Layout:     map[string]int{},
		Components: []string{},
	}, facts)
}

func TestExtract_LayoutFromProbe(t *testing.T) {
	doc := parseDoc(t, `<html><body><main>content</main></body></html>`)
	probe := &fakeProbe{width: 1200, height: 3400, found: true}

	facts := New(zap.NewNop()).Extract(context.Background(), doc, probe)

	assert.Equal(t, map[string]int{"main_width": 1200, "main_height": 3400}, facts.Layout)
	assert.Equal(t, MainContentSelector, probe.lastSelector)
	assert.Equal(t, 1, probe.calls)
}

func TestExtract_ProbeFailureDegradesSilently(t *testing.T) {
	doc := parseDoc(t, `<html><head><style>.x{color:#123456}</style></head><body></body></html>`)
	probe := &fakeProbe{err: errors.New("session died")}

	facts := New(zap.NewNop()).Extract(context.Background(), doc, probe)

	// Style facts survive; layout is simply absent.
	assert.Equal(t, []string{"123456"}, facts.Colors)
	assert.Empty(t, facts.Layout)
}

func TestExtract_NilDocument(t *testing.T) {
	facts := New(zap.NewNop()).Extract(context.Background(), nil, nil)
	assert.Empty(t, facts.Colors)
	assert.Empty(t, facts.Fonts)
	assert.Empty(t, facts.Layout)
}

func TestExtract_ThreeDigitHexInsideLongerToken(t *testing.T) {
	// #1234567 contains a valid 6-digit prefix; the scanner keeps what the
	// pattern matches, mirroring a plain regex scan of raw CSS text.
	doc := parseDoc(t, `<html><head><style>.x{color:#12345678}</style></head><body></body></html>`)

	facts := New(zap.NewNop()).Extract(context.Background(), doc, nil)
	assert.Equal(t, []string{"123456"}, facts.Colors)
}

func TestText_NormalizesDocumentText(t *testing.T) {
	doc := parseDoc(t, "<html><body>\n  <h1>Acme</h1><p>We build rockets.</p>  </body></html>")

	text := Text(doc)
	assert.Contains(t, text, "Acme")
	assert.Contains(t, text, "We build rockets.")
	assert.False(t, strings.HasPrefix(text, "\n"))
}

func TestText_NilDocument(t *testing.T) {
	assert.Equal(t, "", Text(nil))
}

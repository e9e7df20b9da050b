// internal/capture/capture.go
package capture

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
)

// MainContentSelector designates the optional primary content region.
const MainContentSelector = "main"

// PageDriver exposes the viewport and capture primitives of a live browser
// session. Implemented by browser.Session; mocked in tests.
type PageDriver interface {
	ScrollHeight(ctx context.Context) (int64, error)
	SetViewport(ctx context.Context, width, height int64) error
	ResetViewport(ctx context.Context) error
	CaptureViewport(ctx context.Context) ([]byte, error)
	CaptureElement(ctx context.Context, selector string) ([]byte, error)
}

// Capturer produces the named screenshot set for a loaded page.
type Capturer struct {
	viewportWidth int64
	logger        *zap.Logger
}

// New creates a screenshot capturer. viewportWidth is the fixed horizontal
// size used for both the full-page and viewport captures.
func New(viewportWidth int64, logger *zap.Logger) *Capturer {
	return &Capturer{
		viewportWidth: viewportWidth,
		logger:        logger.Named("capturer"),
	}
}

// Capture takes the full-page and viewport screenshots, then attempts the
// optional main-content capture. The full-page capture temporarily grows
// the viewport to the document's scroll height, because the underlying
// mechanism captures only the current viewport; the viewport is restored
// before the viewport-scoped shot. The main-content step alone swallows
// its failures; full-page and viewport failures propagate, since those two
// depend only on session health.
//
// The scroll-height formula misrepresents pages that lazily render content
// below the fold; that behavior is intentional.
func (c *Capturer) Capture(ctx context.Context, drv PageDriver) ([]schemas.Screenshot, error) {
	shots := make([]schemas.Screenshot, 0, 3)

	height, err := drv.ScrollHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("full page capture: %w", err)
	}
	if err := drv.SetViewport(ctx, c.viewportWidth, height); err != nil {
		return nil, fmt.Errorf("full page capture: %w", err)
	}
	full, err := drv.CaptureViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("full page capture: %w", err)
	}
	shots = append(shots, encode(schemas.ScreenshotFullPage, full))

	if err := drv.ResetViewport(ctx); err != nil {
		return nil, fmt.Errorf("viewport capture: %w", err)
	}
	viewport, err := drv.CaptureViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("viewport capture: %w", err)
	}
	shots = append(shots, encode(schemas.ScreenshotViewport, viewport))

	if main, ok := c.captureMainContent(ctx, drv); ok {
		shots = append(shots, main)
	}

	return shots, nil
}

// captureMainContent is best-effort: pages without a main region, and any
// capture failure for this region, simply omit the entry.
func (c *Capturer) captureMainContent(ctx context.Context, drv PageDriver) (schemas.Screenshot, bool) {
	data, err := drv.CaptureElement(ctx, MainContentSelector)
	if err != nil {
		c.logger.Debug("Main content capture skipped.", zap.Error(err))
		return schemas.Screenshot{}, false
	}
	return encode(schemas.ScreenshotMainContent, data), true
}

func encode(t schemas.ScreenshotType, data []byte) schemas.Screenshot {
	return schemas.Screenshot{
		Type: t,
		Data: base64.StdEncoding.EncodeToString(data),
	}
}

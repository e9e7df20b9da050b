// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/internal/config"
)

// Session is an opaque handle to one live browser process, exclusively
// owned by the current request. It must be closed on every exit path;
// Close never propagates teardown failures.
type Session struct {
	id     string
	ctx    context.Context
	logger *zap.Logger

	navTimeout     time.Duration
	readyTimeout   time.Duration
	captureTimeout time.Duration

	viewportWidth  int64
	viewportHeight int64

	onClose   func()
	closeOnce sync.Once
}

func newSession(browserCtx context.Context, cfg config.BrowserConfig, net config.NetworkConfig, logger *zap.Logger, onClose func()) *Session {
	id := uuid.NewString()
	return &Session{
		id:             id,
		ctx:            browserCtx,
		logger:         logger.Named("session").With(zap.String("session_id", id)),
		navTimeout:     net.NavigationTimeout,
		readyTimeout:   net.ReadinessTimeout,
		captureTimeout: net.CaptureTimeout,
		viewportWidth:  cfg.ViewportWidth,
		viewportHeight: cfg.ViewportHeight,
		onClose:        onClose,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close terminates the browser process and releases the concurrency slot.
// Idempotent; teardown errors are swallowed, never propagated.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// run executes chromedp actions against the session's browser context,
// bounded by an optional timeout and by the caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx := s.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(opCtx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(opCtx)
	}
	defer cancel()

	// Propagate cancellation from the request context into the CDP chain.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

// Navigate loads the target URL bounded by the navigation timeout, then
// blocks until the minimal readiness condition holds: a body element is
// present, bounded by the readiness timeout. No retry on either bound; a
// timeout and a navigation failure are distinct error kinds.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating.", zap.String("url", url))

	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &NavigationTimeoutError{URL: url, Err: err}
		}
		return &NavigationError{URL: url, Err: err}
	}

	if err := s.run(ctx, s.readyTimeout, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &NavigationTimeoutError{URL: url, Err: err}
		}
		return &NavigationError{URL: url, Err: err}
	}

	return nil
}

// HTML returns the serialized DOM of the loaded page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.readyTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// ScrollHeight measures the full document scroll height in pixels.
func (s *Session) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := s.run(ctx, s.readyTimeout, chromedp.Evaluate(`document.body.scrollHeight`, &height))
	if err != nil {
		return 0, fmt.Errorf("failed to measure scroll height: %w", err)
	}
	return height, nil
}

// SetViewport overrides the emulated viewport. Used by the capturer to
// grow the viewport to the full scrollable height and to restore it.
func (s *Session) SetViewport(ctx context.Context, width, height int64) error {
	err := s.run(ctx, s.readyTimeout,
		emulation.SetDeviceMetricsOverride(width, height, 1.0, false))
	if err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// ResetViewport restores the fixed initial viewport.
func (s *Session) ResetViewport(ctx context.Context) error {
	return s.SetViewport(ctx, s.viewportWidth, s.viewportHeight)
}

// CaptureViewport captures the current viewport as a PNG.
func (s *Session) CaptureViewport(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.captureTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("viewport capture failed: %w", err)
	}
	return buf, nil
}

// CaptureElement captures the rendered area of the first element matching
// the selector as a PNG. Fails when no such element exists.
func (s *Session) CaptureElement(ctx context.Context, selector string) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.captureTimeout, chromedp.Screenshot(selector, &buf, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("element capture for '%s' failed: %w", selector, err)
	}
	return buf, nil
}

// elementSize mirrors the JSON shape produced by the measurement script.
type elementSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ElementSize measures the rendered pixel size of the first element
// matching the selector. found is false when the element is absent; that
// is not an error.
func (s *Session) ElementSize(ctx context.Context, selector string) (width, height int, found bool, err error) {
	script := fmt.Sprintf(`
		(function(sel) {
			const el = document.querySelector(sel);
			if (!el) return null;
			const rect = el.getBoundingClientRect();
			return { width: Math.round(rect.width), height: Math.round(rect.height) };
		})(%s);`, jsonEncode(selector))

	var raw json.RawMessage
	err = s.run(ctx, s.readyTimeout, chromedp.Evaluate(script, &raw))
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to measure '%s': %w", selector, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return 0, 0, false, nil
	}

	var size elementSize
	if err := json.Unmarshal(raw, &size); err != nil {
		return 0, 0, false, fmt.Errorf("failed to decode size of '%s': %w", selector, err)
	}
	return size.Width, size.Height, true, nil
}

// jsonEncode safely encodes a value for injection into a JS snippet.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/sitelens/internal/config"
)

// Manager hands out isolated browser sessions. Every Acquire spawns a
// dedicated headless Chrome process bound to exactly one request; a
// weighted semaphore caps how many may be alive at once.
type Manager struct {
	cfg    config.BrowserConfig
	net    config.NetworkConfig
	logger *zap.Logger
	slots  *semaphore.Weighted
}

// NewManager creates a browser manager. No browser process is started
// until the first Acquire.
func NewManager(cfg config.BrowserConfig, net config.NetworkConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		net:    net,
		logger: logger.Named("browser_manager"),
		slots:  semaphore.NewWeighted(cfg.Concurrency),
	}
}

// allocatorOptions builds the fixed, non-request-parameterized launch
// configuration. The flags pin a deterministic rendering environment that
// works without a display, GPU, or sandbox support on the host, and mute
// the background features that add noise to captured output.
func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(int(m.cfg.ViewportWidth), int(m.cfg.ViewportHeight)),
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("dns-prefetch-disable", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
	}
	for _, arg := range m.cfg.ExtraArgs {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// Acquire blocks until a concurrency slot frees, then launches one browser
// process and returns the session owning it. A launch failure surfaces as
// *SessionStartError and releases the slot.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, &SessionStartError{Err: fmt.Errorf("waiting for browser slot: %w", err)}
	}

	// The session outlives ctx (which is the inbound request context only
	// up to acquisition); its lifecycle is governed by Close.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), m.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	session := newSession(browserCtx, m.cfg, m.net, m.logger, func() {
		cancelBrowser()
		cancelAlloc()
		m.slots.Release(1)
	})

	// Run with no actions forces the browser process to actually start, so
	// acquisition failures surface here instead of on first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		session.Close()
		return nil, &SessionStartError{Err: err}
	}

	m.logger.Info("Browser session acquired.", zap.String("session_id", session.ID()))
	return session, nil
}

// File: internal/orchestrator/orchestrator.go
// Description: Sequences a single website analysis end to end. It is injected
// with fully configured pipeline components via interfaces, making it
// decoupled and testable.

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
	"github.com/xkilldash9x/sitelens/internal/analysis"
	"github.com/xkilldash9x/sitelens/internal/browser"
	"github.com/xkilldash9x/sitelens/internal/capture"
	"github.com/xkilldash9x/sitelens/internal/config"
	"github.com/xkilldash9x/sitelens/internal/extract"
)

// PageSession is the per-request browser surface the pipeline drives. A
// real session is backed by a Chrome tab; tests substitute a fake.
type PageSession interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	capture.PageDriver
	extract.LayoutProbe
	Close()
}

// SessionSource hands out page sessions. Acquire blocks until a session
// slot is available or the context is done.
type SessionSource interface {
	Acquire(ctx context.Context) (PageSession, error)
}

type managerSource struct {
	m *browser.Manager
}

func (s managerSource) Acquire(ctx context.Context) (PageSession, error) {
	sess, err := s.m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// NewBrowserSource adapts a browser manager to the SessionSource seam.
func NewBrowserSource(m *browser.Manager) SessionSource {
	return managerSource{m: m}
}

// Orchestrator manages the lifecycle of one analysis request: session
// acquisition, navigation, extraction, capture, generation, teardown.
type Orchestrator struct {
	sessions       SessionSource
	extractor      *extract.Extractor
	capturer       *capture.Capturer
	generator      schemas.Generator
	requestTimeout time.Duration
	logger         *zap.Logger
}

// New creates an Orchestrator with its dependencies provided as interfaces
// and components. This decoupling is crucial for testability.
func New(
	cfg *config.Config,
	sessions SessionSource,
	extractor *extract.Extractor,
	capturer *capture.Capturer,
	generator schemas.Generator,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if cfg == nil ||
		sessions == nil ||
		extractor == nil ||
		capturer == nil ||
		generator == nil ||
		logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		sessions:       sessions,
		extractor:      extractor,
		capturer:       capturer,
		generator:      generator,
		requestTimeout: cfg.Server.RequestTimeout,
		logger:         logger.Named("orchestrator"),
	}, nil
}

// Analyze executes the full pipeline for one request. The session acquired
// for the request is released exactly once on every exit path. Errors keep
// their pipeline-stage type so the transport layer can map them to status
// codes; failures while reading or capturing an already-loaded page are
// classified as access failures, matching how driver errors surface.
func (o *Orchestrator) Analyze(ctx context.Context, req schemas.AnalyzeRequest) (*schemas.AnalysisResult, error) {
	if o.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.requestTimeout)
		defer cancel()
	}

	sess, err := o.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	log := o.logger.With(zap.String("session_id", sess.ID()), zap.String("url", req.URL))
	log.Info("Analysis started", zap.String("analysis_type", req.AnalysisType))

	if err := sess.Navigate(ctx, req.URL); err != nil {
		return nil, err
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, &browser.NavigationError{URL: req.URL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The parser tolerates malformed markup; a hard failure means the
		// page source itself was unreadable.
		return nil, &browser.NavigationError{URL: req.URL, Err: err}
	}

	text := extract.Text(doc)
	styles := o.extractor.Extract(ctx, doc, sess)

	shots, err := o.capturer.Capture(ctx, sess)
	if err != nil {
		return nil, &browser.NavigationError{URL: req.URL, Err: err}
	}

	out, err := o.generator.Generate(ctx, schemas.GenerationInput{
		URL:          req.URL,
		AnalysisType: req.AnalysisType,
		PageText:     text,
		Styles:       styles,
		WebSearch:    analysis.BuildWebSearchConfig(req),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Analysis complete",
		zap.Int("screenshots", len(shots)),
		zap.Int("citations", len(out.Citations)))

	return &schemas.AnalysisResult{
		URL:         req.URL,
		Analysis:    out.Analysis,
		Styles:      styles,
		Screenshots: shots,
		Timestamp:   time.Now().UTC(),
		Citations:   out.Citations,
	}, nil
}

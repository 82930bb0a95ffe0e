// Package vidctl drives Chrome tabs and keeps native video controls
// enabled on them according to a per-domain policy.
//
// A Controller owns the browser, one reconciler per page and a watcher
// on the policy store. Policy edits made through the settings editor
// (CLI, HTTP or MCP) re-run every page without a reload.
package vidctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/hazyhaar/vidctl/dom"
	"github.com/hazyhaar/vidctl/dom/rodpage"
	"github.com/hazyhaar/vidctl/internal/browser"
	"github.com/hazyhaar/vidctl/internal/config"
	"github.com/hazyhaar/vidctl/internal/observer"
	"github.com/hazyhaar/vidctl/internal/store"
	"github.com/hazyhaar/vidctl/internal/watch"
	"github.com/hazyhaar/vidctl/overlay"
	"github.com/hazyhaar/vidctl/reconcile"
)

// ErrPageExists is returned when attaching a page ID twice.
var ErrPageExists = errors.New("vidctl: page already attached")

// maxConcurrentAttach bounds tab creation at startup.
const maxConcurrentAttach = 4

type page struct {
	rec    *reconcile.Reconciler
	tab    *browser.Tab
	cancel context.CancelFunc
}

// Controller is the top-level orchestrator.
type Controller struct {
	cfg        *config.Config
	store      *store.Store
	mgr        *browser.Manager
	normalizer *overlay.Normalizer
	sink       reconcile.Sink
	logger     *slog.Logger

	mu    sync.Mutex
	pages map[string]*page
}

// New creates a Controller. st is the policy store shared with the
// settings editor. sink may be nil.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, sink reconcile.Sink) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	norm, err := overlay.New(logger, cfg.Overlays...)
	if err != nil {
		return nil, fmt.Errorf("vidctl: %w", err)
	}
	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		Bin:             cfg.Browser.Bin,
		Headful:         cfg.Browser.Headful,
		Stealth:         cfg.Browser.StealthEnabled(),
		NavigateTimeout: cfg.Browser.NavigateTimeout,
		Logger:          logger,
	})
	return &Controller{
		cfg:        cfg,
		store:      st,
		mgr:        mgr,
		normalizer: norm,
		sink:       sink,
		logger:     logger,
		pages:      make(map[string]*page),
	}, nil
}

// Start launches the browser, attaches every configured page and starts
// the policy watcher. Pages that fail to open are logged and skipped;
// Start fails only when none could be attached.
func (c *Controller) Start(ctx context.Context) error {
	if _, err := c.mgr.Start(ctx); err != nil {
		return fmt.Errorf("vidctl: start browser: %w", err)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(maxConcurrentAttach)
	for _, pc := range c.cfg.Pages {
		p.Go(func() error {
			if err := c.Attach(ctx, pc); err != nil {
				c.logger.Error("vidctl: failed to attach page", "url", pc.URL, "id", pc.ID, "error", err)
				return err
			}
			return nil
		})
	}
	err := p.Wait()
	if err != nil && len(c.Pages()) == 0 && len(c.cfg.Pages) > 0 {
		return fmt.Errorf("vidctl: no page attached: %w", err)
	}

	go c.WatchPolicy(ctx)
	return nil
}

// Attach opens pc in a new tab and starts reconciling it.
func (c *Controller) Attach(ctx context.Context, pc config.PageConfig) error {
	tab, err := c.mgr.OpenTab(ctx, pc.URL, pc.ID)
	if err != nil {
		return err
	}
	src := observer.New(observer.Config{
		Page:           tab.Page,
		PageID:         pc.ID,
		DebounceWindow: c.cfg.Debounce.Window,
		DebounceMax:    c.cfg.Debounce.MaxBuffer,
		Logger:         c.logger,
	})
	if _, err := c.attach(ctx, pc.ID, rodpage.New(tab.Page), src, tab); err != nil {
		tab.Close()
		return err
	}
	c.logger.Info("vidctl: reconciling page", "url", pc.URL, "id", pc.ID)
	return nil
}

// AttachDocument starts reconciling an arbitrary document fed by src.
func (c *Controller) AttachDocument(ctx context.Context, id string, doc dom.Document, src reconcile.Source) (*reconcile.Reconciler, error) {
	return c.attach(ctx, id, doc, src, nil)
}

func (c *Controller) attach(ctx context.Context, id string, doc dom.Document, src reconcile.Source, tab *browser.Tab) (*reconcile.Reconciler, error) {
	c.mu.Lock()
	if _, ok := c.pages[id]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPageExists, id)
	}
	pctx, cancel := context.WithCancel(ctx)
	rec := reconcile.New(reconcile.Config{
		PageID:     id,
		Doc:        doc,
		Policy:     c.store,
		Normalizer: c.normalizer,
		Sink:       c.sink,
		Logger:     c.logger,
	})
	c.pages[id] = &page{rec: rec, tab: tab, cancel: cancel}
	c.mu.Unlock()

	if err := rec.Start(pctx, src); err != nil {
		cancel()
		c.mu.Lock()
		delete(c.pages, id)
		c.mu.Unlock()
		return nil, err
	}
	return rec, nil
}

// Pages returns the IDs of attached pages.
func (c *Controller) Pages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pages))
	for id := range c.pages {
		ids = append(ids, id)
	}
	return ids
}

// ReconcileAll requests a pass on every attached page.
func (c *Controller) ReconcileAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pages {
		p.rec.Trigger()
	}
}

// WatchPolicy blocks until ctx is done, re-running every page whenever
// the policy store is written.
func (c *Controller) WatchPolicy(ctx context.Context) {
	w := watch.New(c.store.DB, watch.Options{
		Interval: c.cfg.Watch.Interval,
		Detector: watch.MaxColumnDetector("kv", "updated_at"),
		Logger:   c.logger,
	})
	w.OnChange(ctx, func() error {
		c.logger.Info("vidctl: policy changed, reconciling pages", "pages", len(c.Pages()))
		c.ReconcileAll()
		return nil
	})
}

// Stop detaches every page and shuts down the browser and sinks. Each
// page loop has exited, with its last pass finished, before tabs, sinks
// and the browser are closed.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.pages {
		p.cancel()
	}
	for id, p := range c.pages {
		<-p.rec.Done()
		if p.tab != nil {
			if err := p.tab.Close(); err != nil {
				c.logger.Debug("vidctl: close tab", "id", id, "error", err)
			}
		}
		c.logger.Info("vidctl: stopped page", "id", id)
	}
	c.pages = make(map[string]*page)

	if c.sink != nil {
		c.sink.Close()
	}
	c.mgr.Close()
}

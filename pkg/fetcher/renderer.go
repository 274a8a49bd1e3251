package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/config"
	"github.com/geniass/pricewatch/pkg/document"
)

// annotateGeometry stamps every element with its page-space bounding box
// so the resolver can tell where a price is rendered.
const annotateGeometry = `(() => {
	for (const el of document.querySelectorAll('body, body *')) {
		const r = el.getBoundingClientRect();
		const box = [r.left + window.scrollX, r.top + window.scrollY, r.width, r.height];
		el.setAttribute('` + document.RectAttr + `', box.map(v => Math.round(v)).join(','));
	}
	return true;
})()`

// Renderer loads pages in headless Chrome, runs their scripts and records
// element geometry against a fixed viewport.
type Renderer struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	cfg        config.FetcherConfig
	logger     *zap.Logger
	errorPages errorPages

	start    sync.Once
	startErr error
}

func NewRenderer(cfg config.FetcherConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	return &Renderer{
		browserCtx: browserCtx,
		cancel:     cancel,
		cfg:        cfg,
		logger:     logger,
		errorPages: errorPages(cfg.ErrorPages),
	}
}

// Fetch opens pageURL in a new tab, which is closed before returning. The
// browser is launched on first use.
func (r *Renderer) Fetch(ctx context.Context, pageURL string) (*document.Document, error) {
	r.start.Do(func() {
		r.startErr = chromedp.Run(r.browserCtx)
	})
	if r.startErr != nil {
		return nil, fmt.Errorf("start browser: %w", r.startErr)
	}

	tabCtx, cancel := chromedp.NewContext(r.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if r.cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, r.cfg.Timeout)
		defer cancelTimeout()
	}

	var location, markup string
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(r.cfg.ViewportWidth), int64(r.cfg.ViewportHeight)),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.Evaluate(annotateGeometry, nil),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", pageURL, err)
	}

	if loc, perr := url.Parse(location); perr == nil && r.errorPages.match(loc) {
		return nil, fmt.Errorf("%q landed on %q: %w", pageURL, location, ErrRedirectToErrorPage)
	}
	r.logger.Debug("Rendered", zap.String("url", pageURL), zap.String("location", location), zap.Int("bytes", len(markup)))

	doc, err := document.ParseString(markup,
		document.WithURL(location),
		document.WithViewport(float64(r.cfg.ViewportWidth), float64(r.cfg.ViewportHeight)),
	)
	if err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("%q: %w", pageURL, ErrNoDocument)
	}
	return doc, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() error {
	r.cancel()
	return nil
}

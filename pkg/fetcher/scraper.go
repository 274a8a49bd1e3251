package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/config"
	"github.com/geniass/pricewatch/pkg/document"
)

const maxRedirects = 10

// Scraper fetches static pages with colly. Pages carry no geometry.
type Scraper struct {
	colly      *colly.Collector
	logger     *zap.Logger
	maxRetries int
	errorPages errorPages

	backoff func(retry int) time.Duration
}

func NewScraper(cfg config.FetcherConfig, logger *zap.Logger) (*Scraper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	options := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
		// the same product is fetched on every pass
		colly.AllowURLRevisit(),
	}
	if len(cfg.AllowedDomains) > 0 {
		options = append(options, colly.AllowedDomains(cfg.AllowedDomains...))
	}
	// cacheDir can be empty to disable caching.
	if cfg.CacheDir != "" {
		options = append(options, colly.CacheDir(cfg.CacheDir))
	}

	s := &Scraper{
		colly:      colly.NewCollector(options...),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		errorPages: errorPages(cfg.ErrorPages),
		backoff: func(retry int) time.Duration {
			return time.Duration(math.Pow(2, float64(retry))) * time.Second
		},
	}

	// shared cookies between concurrent product fetches mix up sessions
	s.colly.DisableCookies()

	if cfg.Timeout > 0 {
		s.colly.SetRequestTimeout(cfg.Timeout)
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	if err := s.colly.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("limit rule: %w", err)
	}

	// shops redirect to a generic error or captcha page instead of answering with an error status
	s.colly.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if s.errorPages.match(req.URL) {
			return fmt.Errorf("not following redirect (implies error) %q: %w", req.URL.String(), ErrRedirectToErrorPage)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		s.logger.Debug("Redirecting",
			zap.String("from", via[0].URL.String()),
			zap.String("to", req.URL.String()),
		)
		return nil
	})

	return s, nil
}

// Fetch downloads url, retrying transient failures with exponential
// backoff up to the configured number of retries.
func (s *Scraper) Fetch(ctx context.Context, url string) (*document.Document, error) {
	var lastErr error
	for retry := 0; retry <= s.maxRetries; retry++ {
		if retry > 0 {
			wait := s.backoff(retry)
			s.logger.Warn("Request failed, retrying",
				zap.String("url", url),
				zap.Int("retry", retry),
				zap.Duration("after", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		doc, status, err := s.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		if !retryable(ctx, err, status) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("max retries (%d) exceeded for URL %q: %w", s.maxRetries, url, lastErr)
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) (*document.Document, int, error) {
	c := s.colly.Clone()
	c.Context = ctx

	var (
		doc     *document.Document
		status  int
		failure error
	)

	c.OnRequest(func(r *colly.Request) {
		s.logger.Debug("Visiting", zap.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		failure = err
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if doc != nil {
			return
		}
		doc = document.FromSelection(e.DOM, document.WithURL(e.Request.URL.String()))
	})

	err := c.Visit(url)
	if err == nil {
		err = failure
	}
	if err != nil {
		return nil, status, fmt.Errorf("fetch %q [%d]: %w", url, status, err)
	}
	if doc == nil {
		return nil, status, fmt.Errorf("%q: %w", url, ErrNoDocument)
	}
	return doc, status, nil
}

func (s *Scraper) Close() error {
	return nil
}

func retryable(ctx context.Context, err error, status int) bool {
	switch {
	case ctx.Err() != nil:
		return false
	case errors.Is(err, ErrRedirectToErrorPage), errors.Is(err, ErrNoDocument):
		// no need to retry, the page is broken or blocked
		return false
	case errors.Is(err, colly.ErrForbiddenDomain), errors.Is(err, colly.ErrMissingURL):
		return false
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= 400 && status < 500:
		return false
	}
	return true
}

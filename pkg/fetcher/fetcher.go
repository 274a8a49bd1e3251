// Package fetcher turns product page URLs into documents for the resolver,
// either with a plain HTTP scraper or a headless browser that also
// records element geometry.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/config"
	"github.com/geniass/pricewatch/pkg/document"
)

var (
	ErrRedirectToErrorPage = errors.New("redirected to error page")
	ErrNoDocument          = errors.New("response contained no html document")
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*document.Document, error)
}

// Client is a Fetcher holding connections or a browser until Close.
type Client interface {
	Fetcher
	Close() error
}

// New builds the client named by cfg.Renderer.
func New(cfg config.FetcherConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Renderer {
	case config.RendererColly, "":
		return NewScraper(cfg, logger)
	case config.RendererChromedp:
		return NewRenderer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
}

type errorPages []string

func (p errorPages) match(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := u.String()
	for _, pattern := range p {
		if pattern != "" && strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

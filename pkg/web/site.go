package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/store"
)

// Site renders report pages from a store.
type Site struct {
	store      store.Store
	pathPrefix string
	logger     *zap.Logger
}

// NewSite renders links under pathPrefix, in case pages are hosted at a
// subpath; it should start with '/'.
func NewSite(s store.Store, pathPrefix string, logger *zap.Logger) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Site{store: s, pathPrefix: strings.TrimSuffix(pathPrefix, "/"), logger: logger}
}

func (s *Site) base() BaseContext {
	return BaseContext{PathPrefix: s.pathPrefix}
}

// Page renders the page at name ("index.html", "deals.html", "all.html",
// "unavailable.html" or "products/<id>.html").
func (s *Site) Page(ctx context.Context, w io.Writer, name string) error {
	if id, ok := strings.CutPrefix(name, "products/"); ok {
		id = strings.TrimSuffix(id, ".html")
		if id == "" || id != store.ProductID(id) {
			return errPageNotFound
		}
		p, err := s.store.Product(ctx, id)
		if err != nil {
			return err
		}
		history, err := s.store.History(ctx, id)
		if err != nil {
			return err
		}
		return RenderProduct(w, ProductContext{BaseContext: s.base(), Product: p, History: history})
	}

	ps, err := s.store.Products(ctx)
	if err != nil {
		return err
	}

	switch name {
	case "", "index.html":
		return RenderHome(w, HomeContext{
			BaseContext: s.base(),
			LastUpdated: LastUpdated(ps),
			Total:       len(ps),
			Deals:       len(Deals(ps)),
			Unavailable: len(Unavailable(ps)),
		})
	case "deals.html":
		return RenderDealz(w, DealzContext{
			BaseContext:  s.base(),
			Title:        "Deals",
			LastUpdated:  LastUpdated(ps),
			Products:     Deals(ps),
			ShowDiscount: true,
		})
	case "all.html":
		return RenderDealz(w, DealzContext{
			BaseContext: s.base(),
			Title:       "All products",
			LastUpdated: LastUpdated(ps),
			Products:    ps,
		})
	case "unavailable.html":
		return RenderDealz(w, DealzContext{
			BaseContext: s.base(),
			Title:       "Unavailable",
			LastUpdated: LastUpdated(ps),
			Products:    Unavailable(ps),
		})
	}
	return errPageNotFound
}

var errPageNotFound = errors.New("page not found")

// Generate writes every page into dir.
func (s *Site) Generate(ctx context.Context, dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "products"), os.ModeDir|0775); err != nil {
		return err
	}

	names := []string{"index.html", "deals.html", "all.html", "unavailable.html"}
	ps, err := s.store.Products(ctx)
	if err != nil {
		return err
	}
	for _, p := range ps {
		names = append(names, "products/"+p.ID+".html")
	}

	for _, name := range names {
		err := renderToFile(dir, name, func(w io.Writer) error {
			return s.Page(ctx, w, name)
		})
		if err != nil {
			return err
		}
		s.logger.Debug("Wrote page", zap.String("page", name))
	}
	s.logger.Info("Generated site", zap.String("dir", dir), zap.Int("pages", len(names)))
	return nil
}

// ServeHTTP renders pages on request, for previewing the report locally.
func (s *Site) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, s.pathPrefix), "/")

	// buffered so a render failure can still set the status
	var buf strings.Builder
	err := s.Page(r.Context(), &buf, name)
	switch {
	case errors.Is(err, errPageNotFound), errors.Is(err, store.ErrProductNotFound):
		http.NotFound(rw, r)
		return
	case err != nil:
		s.logger.Error("Render failed", zap.String("path", r.URL.Path), zap.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(rw, buf.String())
}

func renderToFile(dir string, filename string, renderFunc func(w io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := renderFunc(f); err != nil {
		return err
	}
	return nil
}

// Package tracker runs resolution passes for every stored product:
// fetch the page, resolve price and availability, append the result to
// the product's history.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geniass/pricewatch/pkg/fetcher"
	"github.com/geniass/pricewatch/pkg/resolver"
	"github.com/geniass/pricewatch/pkg/store"
)

type Tracker struct {
	fetcher  fetcher.Fetcher
	resolver *resolver.Resolver
	store    store.Store
	logger   *zap.Logger

	concurrency int
	timeout     time.Duration
	now         func() time.Time
}

type Option func(*Tracker)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithConcurrency bounds the number of products fetched at once.
func WithConcurrency(n int) Option {
	return func(t *Tracker) { t.concurrency = n }
}

// WithTimeout bounds each fetch. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(f fetcher.Fetcher, r *resolver.Resolver, s store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher:     f,
		resolver:    r,
		store:       s,
		logger:      zap.NewNop(),
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.concurrency <= 0 {
		t.concurrency = 1
	}
	return t
}

// Outcome is one product's pass. FetchErr is set when the page could not
// be fetched; the pass is still recorded, as a failure.
type Outcome struct {
	Product  store.Product
	Result   resolver.Result
	FetchErr error
}

type Summary struct {
	// RunID tags the run's log lines.
	RunID       string
	Products    int
	Resolved    int
	Failed      int
	FetchErrors int
	OnSale      int
	Unavailable int
	Duration    time.Duration
	// Outcomes are sorted by product ID.
	Outcomes []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Products++
	if o.Result.Success {
		s.Resolved++
	} else {
		s.Failed++
	}
	if o.FetchErr != nil {
		s.FetchErrors++
	}
	if o.Result.IsOnSale {
		s.OnSale++
	}
	if o.Result.Availability == resolver.Unavailable {
		s.Unavailable++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Run tracks every stored product. Fetch failures are recorded and do not
// stop the run; store failures and cancellation do.
func (t *Tracker) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	log := t.logger.With(zap.String("run_id", summary.RunID))

	products, err := t.store.Products(ctx)
	if err != nil {
		return summary, fmt.Errorf("list products: %w", err)
	}
	log.Info("Starting tracking run",
		zap.Int("products", len(products)),
		zap.Int("concurrency", t.concurrency),
	)

	var mutex sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, p := range products {
		g.Go(func() error {
			o, err := t.track(gctx, p, log)
			if err != nil {
				return err
			}
			mutex.Lock()
			summary.add(o)
			mutex.Unlock()
			return nil
		})
	}
	err = g.Wait()

	sort.Slice(summary.Outcomes, func(i, j int) bool {
		return summary.Outcomes[i].Product.ID < summary.Outcomes[j].Product.ID
	})
	summary.Duration = time.Since(start)

	if err != nil {
		return summary, err
	}

	log.Info("Tracking run finished",
		zap.Int("products", summary.Products),
		zap.Int("resolved", summary.Resolved),
		zap.Int("failed", summary.Failed),
		zap.Int("fetch_errors", summary.FetchErrors),
		zap.Int("on_sale", summary.OnSale),
		zap.Int("unavailable", summary.Unavailable),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Track runs one pass for p and saves it.
func (t *Tracker) Track(ctx context.Context, p store.Product) (Outcome, error) {
	return t.track(ctx, p, t.logger)
}

func (t *Tracker) track(ctx context.Context, p store.Product, log *zap.Logger) (Outcome, error) {
	o := Outcome{Product: p}

	fctx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	doc, err := t.fetcher.Fetch(fctx, p.URL)
	if err != nil {
		if ctx.Err() != nil {
			return o, ctx.Err()
		}
		log.Warn("Fetch failed", zap.String("product", p.ID), zap.String("url", p.URL), zap.Error(err))
		o.FetchErr = err
		doc = nil
	}

	o.Result = t.resolver.Resolve(doc, p.Category)
	if err := t.store.SaveResult(ctx, p, o.Result, t.now()); err != nil {
		return o, fmt.Errorf("save result for %q: %w", p.ID, err)
	}

	fields := []zap.Field{
		zap.String("product", p.ID),
		zap.Bool("success", o.Result.Success),
		zap.String("availability", string(o.Result.Availability)),
	}
	if o.Result.CurrentPrice != nil {
		fields = append(fields,
			zap.String("price", o.Result.CurrentPrice.StringFixed(2)),
			zap.Bool("on_sale", o.Result.IsOnSale),
			zap.String("source", o.Result.PriceSource),
		)
	}
	if o.Result.Success {
		log.Info("Resolved", fields...)
	} else {
		log.Warn("Not resolved", append(fields, zap.String("failure", string(o.Result.Failure)))...)
	}
	return o, nil
}

package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniass/pricewatch/pkg/resolver"
	"github.com/geniass/pricewatch/pkg/store"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stores(t *testing.T) map[string]store.Store {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	sq, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]store.Store{"file": fs, "sqlite": sq}
}

func TestStore_Products(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.AddProduct(ctx, store.Product{
				Name:     "RTX 4070 Super  (12GB)",
				URL:      "https://shop.example/dp/B0CS",
				Category: " GPU ",
			})
			require.NoError(t, err)
			assert.Equal(t, "rtx-4070-super-12gb", p.ID)
			assert.Equal(t, "gpu", p.Category)

			_, err = s.AddProduct(ctx, store.Product{Name: "Anker USB-C Cable", URL: "https://shop.example/dp/B01"})
			require.NoError(t, err)

			_, err = s.AddProduct(ctx, store.Product{Name: "rtx 4070 super 12gb", URL: "https://shop.example/other"})
			require.ErrorIs(t, err, store.ErrProductExists)

			_, err = s.AddProduct(ctx, store.Product{Name: "No URL"})
			require.Error(t, err)

			ps, err := s.Products(ctx)
			require.NoError(t, err)
			require.Len(t, ps, 2)
			assert.Equal(t, "anker-usb-c-cable", ps[0].ID)
			assert.Equal(t, "rtx-4070-super-12gb", ps[1].ID)
			assert.Nil(t, ps[1].Latest)

			got, err := s.Product(ctx, "rtx-4070-super-12gb")
			require.NoError(t, err)
			assert.Equal(t, "https://shop.example/dp/B0CS", got.URL)

			_, err = s.Product(ctx, "missing")
			require.ErrorIs(t, err, store.ErrProductNotFound)
		})
	}
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	sale := resolver.Result{
		CurrentPrice:        price("1299.99"),
		BasePrice:           price("1499.00"),
		SalePrice:           price("1299.99"),
		IsOnSale:            true,
		PriceSource:         "composite-whole-fraction",
		Availability:        resolver.Available,
		AvailabilityReasons: []string{},
		Success:             true,
	}
	failed := resolver.Result{
		Availability:        resolver.Unknown,
		AvailabilityReasons: []string{resolver.ReasonSparseDocument},
		Failure:             resolver.FailureMalformedDocument,
	}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.AddProduct(ctx, store.Product{Name: "Ryzen 7 7800X3D", URL: "https://shop.example/cpu", Category: "cpu"})
			require.NoError(t, err)

			require.NoError(t, s.SaveResult(ctx, p, sale, first))
			require.NoError(t, s.SaveResult(ctx, p, failed, second))

			err = s.SaveResult(ctx, store.Product{ID: "ghost"}, sale, first)
			require.ErrorIs(t, err, store.ErrProductNotFound)

			obs, err := s.History(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, obs, 2)

			if diff := cmp.Diff(store.NewObservation(sale, first), obs[0], decimalEqual, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("first observation mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, obs[0].At.Equal(first))
			assert.True(t, obs[0].Success)
			assert.True(t, obs[0].IsOnSale)
			assert.Equal(t, "1299.99", obs[0].CurrentPrice.Decimal.StringFixed(2))
			assert.Equal(t, "1499.00", obs[0].BasePrice.Decimal.StringFixed(2))
			assert.Equal(t, "composite-whole-fraction", obs[0].PriceSource)
			assert.Equal(t, "0.1328", obs[0].Discount().StringFixed(4))

			assert.False(t, obs[1].Success)
			assert.False(t, obs[1].CurrentPrice.Valid)
			assert.Equal(t, resolver.Unknown, obs[1].Availability)
			assert.Equal(t, []string{resolver.ReasonSparseDocument}, obs[1].Reasons)
			assert.Equal(t, resolver.FailureMalformedDocument, obs[1].Failure)

			got, err := s.Product(ctx, p.ID)
			require.NoError(t, err)
			require.NotNil(t, got.Latest)
			assert.True(t, got.Latest.At.Equal(second))

			_, err = s.History(ctx, "ghost")
			require.ErrorIs(t, err, store.ErrProductNotFound)
		})
	}
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := filepath.Join(root, "outside")
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "product.json"),
		[]byte(`{"id":"outside","name":"outside","url":"https://shop.example/x"}`), 0644))

	s, err := store.NewFileStore(filepath.Join(root, "data"))
	require.NoError(t, err)

	for _, id := range []string{"../outside", "..", "", "Outside"} {
		_, err := s.Product(ctx, id)
		assert.ErrorIs(t, err, store.ErrProductNotFound, id)

		_, err = s.History(ctx, id)
		assert.ErrorIs(t, err, store.ErrProductNotFound, id)

		err = s.SaveResult(ctx, store.Product{ID: id}, resolver.Result{}, time.Now())
		assert.ErrorIs(t, err, store.ErrProductNotFound, id)
	}
	_, err = os.Stat(filepath.Join(outside, "history.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen(t *testing.T) {
	s, err := store.Open("file", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = store.Open("mongo", "")
	require.Error(t, err)
}

func TestProductID(t *testing.T) {
	assert.Equal(t, "samsung-990-pro-2tb", store.ProductID("Samsung 990 PRO, 2TB"))
	assert.Equal(t, "", store.ProductID("  !! "))
}

package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/store"
)

func newProductsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage tracked products",
	}
	cmd.AddCommand(newProductsAddCommand(a), newProductsListCommand(a))
	return cmd
}

func newProductsAddCommand(a *app) *cobra.Command {
	var p store.Product

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Start tracking a product page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			added, err := s.AddProduct(cmd.Context(), p)
			if err != nil {
				return err
			}
			a.logger.Info("Added product", zap.String("id", added.ID), zap.String("url", added.URL))
			fmt.Fprintln(cmd.OutOrStdout(), added.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "product name, also used to derive its ID")
	cmd.Flags().StringVar(&p.URL, "url", "", "product page URL")
	cmd.Flags().StringVar(&p.Category, "category", "", "product category, selects the plausible price range")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newProductsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked products with their latest observation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ps, err := s.Products(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Category", "Price", "Sale", "Availability", "Checked"})
			for _, p := range ps {
				price, sale, availability, checked := "-", "-", "-", "never"
				if o := p.Latest; o != nil {
					if o.CurrentPrice.Valid {
						price = o.CurrentPrice.Decimal.StringFixed(2)
					}
					if o.IsOnSale {
						sale = o.Discount().Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
					}
					availability = string(o.Availability)
					checked = o.At.Format(time.RFC3339)
				}
				category := p.Category
				if category == "" {
					category = "-"
				}
				t.AppendRow(table.Row{p.ID, category, price, sale, availability, checked})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/geniass/pricewatch/pkg/fetcher"
	"github.com/geniass/pricewatch/pkg/tracker"
)

func newTrackCommand(a *app) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "track [product-id...]",
		Short: "Fetch and resolve tracked products, recording the results",
		Long: `track runs one pass for every tracked product, or only the given ones.
A page that cannot be fetched is recorded as a failed pass and does not stop
the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency <= 0 {
				concurrency = a.cfg.Tracker.Concurrency
			}

			r, err := a.newResolver()
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := fetcher.New(a.cfg.Fetcher, a.logger.Named("fetcher"))
			if err != nil {
				return err
			}
			defer f.Close()

			t := tracker.New(f, r, s,
				tracker.WithLogger(a.logger.Named("tracker")),
				tracker.WithConcurrency(concurrency),
				tracker.WithTimeout(timeout),
			)

			if len(args) == 0 {
				summary, err := t.Run(cmd.Context())
				if err != nil {
					return err
				}
				printOutcomes(cmd.OutOrStdout(), summary.Outcomes)
				return nil
			}

			var outcomes []tracker.Outcome
			for _, id := range args {
				p, err := s.Product(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("product %q: %w", id, err)
				}
				o, err := t.Track(cmd.Context(), p)
				if err != nil {
					return err
				}
				outcomes = append(outcomes, o)
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "products fetched at once (default from tracker.concurrency)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "bound on each product's fetch including retries, 0 for none")
	return cmd
}

func printOutcomes(out io.Writer, outcomes []tracker.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Price", "On sale", "Availability", "Result"})
	for _, o := range outcomes {
		price := "-"
		if o.Result.CurrentPrice != nil {
			price = o.Result.CurrentPrice.StringFixed(2)
		}
		result := "ok"
		switch {
		case o.FetchErr != nil:
			result = "fetch failed: " + o.FetchErr.Error()
		case !o.Result.Success:
			result = string(o.Result.Failure)
		}
		t.AppendRow(table.Row{o.Product.ID, price, o.Result.IsOnSale, o.Result.Availability, result})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

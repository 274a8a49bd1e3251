package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/fetcher"
	"github.com/geniass/pricewatch/pkg/tracker"
	"github.com/geniass/pricewatch/pkg/web"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		schedule   string
		timeout    time.Duration
		outputDir  string
		pathPrefix string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Track every product on a schedule until interrupted",
		Long: `watch runs a tracking pass on every tick of a cron schedule, such as
"0 */6 * * *" or "@every 6h". With --output-dir the report pages are
regenerated after each pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule == "" {
				schedule = a.cfg.Tracker.Schedule
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
				tracker.WithConcurrency(a.cfg.Tracker.Concurrency),
				tracker.WithTimeout(timeout),
			)

			var after func(context.Context, tracker.Summary) error
			if outputDir != "" {
				site := web.NewSite(s, pathPrefix, a.logger.Named("web"))
				after = func(ctx context.Context, summary tracker.Summary) error {
					a.logger.Info("Regenerating reports", zap.String("run_id", summary.RunID), zap.String("dir", outputDir))
					return site.Generate(ctx, outputDir)
				}
			}
			return t.Watch(cmd.Context(), schedule, after)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression or descriptor (default from tracker.schedule)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "bound on each product's fetch including retries, 0 for none")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "regenerate the report pages here after every pass")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "prefix page link URLs; should start with '/'")
	return cmd
}

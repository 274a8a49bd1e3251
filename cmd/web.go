package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/web"
)

func newGenerateWebCommand(a *app) *cobra.Command {
	var (
		outputDir  string
		pathPrefix string
	)

	cmd := &cobra.Command{
		Use:   "generate-web",
		Short: "Render the report pages as static HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			return web.NewSite(s, pathPrefix, a.logger.Named("web")).Generate(cmd.Context(), outputDir)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "docs", "directory to write rendered HTML content to")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "prefix page link URLs (in case pages are hosted at a subpath); should start with '/'")
	return cmd
}

func newDevWebCommand(a *app) *cobra.Command {
	var (
		addr       string
		pathPrefix string
	)

	cmd := &cobra.Command{
		Use:   "dev-web",
		Short: "Serve the report pages, rendered on every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           web.NewSite(s, pathPrefix, a.logger.Named("web")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			a.logger.Info("Serving reports", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "prefix page link URLs; should start with '/'")
	return cmd
}

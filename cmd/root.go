// Package cmd implements the pricewatch command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/config"
	"github.com/geniass/pricewatch/pkg/logging"
	"github.com/geniass/pricewatch/pkg/resolver"
	"github.com/geniass/pricewatch/pkg/store"
)

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pricewatch",
		Short: "Track product prices and availability",
		Long: `pricewatch resolves the current price, sale state and availability of
product pages, records every pass and renders the history as HTML reports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")

	root.AddCommand(
		newResolveCommand(a),
		newProductsCommand(a),
		newTrackCommand(a),
		newWatchCommand(a),
		newGenerateWebCommand(a),
		newDevWebCommand(a),
	)
	return root
}

func (a *app) init() error {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) newResolver() (*resolver.Resolver, error) {
	rc, err := a.cfg.Resolver.Build()
	if err != nil {
		return nil, err
	}
	return resolver.New(rc, resolver.WithLogger(a.logger.Named("resolver")))
}

func (a *app) openStore() (store.Store, error) {
	s, err := store.Open(a.cfg.Store.Driver, a.cfg.Store.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store.Driver, err)
	}
	return s, nil
}

// Package main is the rebel command: a terminal game and its HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rebel-command/internal/api"
	"rebel-command/internal/config"
	"rebel-command/internal/game"
	"rebel-command/internal/logging"
	"rebel-command/internal/session"
	"rebel-command/internal/terminal"
)

var version = "dev"

const shutdownGrace = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rebel:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "rebel",
		Short:         "Command the Rebel Alliance against the Death Star",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPlayCmd(&verbose),
		newServeCmd(&verbose),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "rebel", version)
			},
		},
	)
	return root
}

func newPlayCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play one game in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.ForTerminal(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			d := terminal.NewDriver(engine, cmd.InOrStdin(), cmd.OutOrStdout(), log)
			_, err = d.Run(cmd.Context())
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd(verbose *bool) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			log, err := logging.New(cfg.LogLevel, *verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides REBEL_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	store, err := session.Open(ctx, cfg.StoreOptions(), log)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := session.NewManager(store, engine,
		session.WithSingleSession(cfg.SingleSession),
		session.WithLogger(log),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewMux(manager, log, api.WithOriginPatterns(cfg.WSOrigins...)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("dialect", cfg.Dialect))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return manager.RunSweeper(gctx, cfg.SweepEvery, cfg.SessionTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newEngine(cfg config.Config) (*game.Engine, error) {
	gambit, err := game.GambitByName(cfg.Gambit)
	if err != nil {
		return nil, err
	}
	opts := []game.EngineOption{game.WithGambit(gambit)}
	if cfg.NarrativeFile != "" {
		n, err := game.LoadNarrativeFile(cfg.NarrativeFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, game.WithNarrative(n))
	}
	return game.NewEngine(opts...), nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/leadqual/internal/config"
	httpapi "github.com/denisok6893-rgb/leadqual/internal/http"
	"github.com/denisok6893-rgb/leadqual/internal/leads"
	"github.com/denisok6893-rgb/leadqual/internal/logger"
	"github.com/denisok6893-rgb/leadqual/internal/matching"
	"github.com/denisok6893-rgb/leadqual/internal/session"
	"github.com/denisok6893-rgb/leadqual/internal/storage"
)

func newServeCommand(v *viper.Viper, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lead qualification API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, *cfgFile)
			if err != nil {
				return err
			}

			l, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
			if err != nil {
				return fmt.Errorf("creating a logger: %w", err)
			}
			defer func() { _ = l.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, l)
		},
	}

	cmd.Flags().StringP("address", "a", "", "listen address, overrides server.address")
	_ = v.BindPFlag("server.address", cmd.Flags().Lookup("address"))
	return cmd
}

// serve opens storage, seeds listings and runs the HTTP server until ctx is
// cancelled.
func serve(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	l.Info("starting the leadqual api", zap.String("version", version), zap.String("address", cfg.Server.Address))

	if cfg.Storage.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	store, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	seedProperties(ctx, store, cfg.Storage.SeedProperties, l)

	adjacency := matching.DefaultAdjacency()
	if cfg.Matching.AdjacencyFile != "" {
		adjacency, err = matching.LoadAdjacencyFile(cfg.Matching.AdjacencyFile)
		if err != nil {
			l.Warn("using default adjacency", zap.String("file", cfg.Matching.AdjacencyFile), zap.Error(err))
		}
	}
	engine := matching.NewEngine(adjacency)

	api := httpapi.NewServer(httpapi.Deps{
		Service:  leads.NewService(store, engine, l.Named("leads")),
		Engine:   engine,
		Sessions: session.NewStore(),
		Store:    store,
		Logger:   l.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Routes(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seedProperties loads the initial listings. A missing or broken seed file
// is logged and skipped.
func seedProperties(ctx context.Context, store *storage.SQLiteStore, path string, l *zap.Logger) {
	if path == "" {
		return
	}
	props, err := storage.LoadPropertiesFromFile(path)
	if err != nil {
		l.Warn("skipping property seed", zap.String("file", path), zap.Error(err))
		return
	}
	if err := store.UpsertProperties(ctx, props); err != nil {
		l.Warn("seeding properties failed", zap.Error(err))
		return
	}
	l.Info("properties seeded", zap.Int("count", len(props)))
}

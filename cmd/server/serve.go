package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/cache"
	"github.com/jason-s-yu/bomber/internal/config"
	"github.com/jason-s-yu/bomber/internal/database"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/handlers"
	"github.com/jason-s-yu/bomber/internal/lobby"
	"github.com/jason-s-yu/bomber/internal/middleware"
	"github.com/jason-s-yu/bomber/internal/realtime"
	"github.com/jason-s-yu/bomber/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// shutdownGrace bounds how long in-flight HTTP requests may run after a stop signal.
const shutdownGrace = 5 * time.Second

var (
	flagAddr  string
	flagRules string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	Long: `Run the HTTP API and the /game/ws WebSocket endpoint, and tick every
running match at a fixed interval.

Accounts are kept in memory unless ACCOUNTS_BACKEND selects postgres
(DATABASE_URL) or sqlite (SQLITE_PATH). Setting REDIS_ADDR orders the
leaderboard from a Redis sorted set.

Examples:
  bomber serve
  bomber serve --addr :9000
  bomber serve --rules ./rules.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default :$PORT)")
	serveCmd.Flags().StringVar(&flagRules, "rules", "", "Path to a YAML rules file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	rules, err := config.LoadRules(flagRules)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openAccountStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var ranking account.Ranking
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		ranking = cache.NewRanking(rdb, cache.DefaultRankingKey)
		logger.Infof("Leaderboard ranking backed by Redis at %s", cfg.RedisAddr)
	}

	tokens, err := cfg.NewTokens()
	if err != nil {
		return err
	}

	accounts := account.NewService(store, tokens, ranking, logger)
	engine := game.NewEngine(rules, accounts, logger)
	hub := realtime.NewHub(logger)
	lobbies := lobby.NewManager(lobby.NewMemoryStore(), engine, logger)
	gs := handlers.NewGameServer(accounts, lobbies, engine, hub, logger)

	addr := flagAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Recover(logger)(middleware.LogMiddleware(logger)(gs.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ticker := realtime.NewTicker(engine, hub, logger)
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		ticker.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     addr,
			"accounts": cfg.AccountsBackend,
			"board":    fmt.Sprintf("%dx%d", rules.Width, rules.Height),
		}).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		stop()
		<-tickerDone
		engine.Shutdown()
		return fmt.Errorf("server exited: %w", err)
	}

	<-tickerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP server shutdown: %v", err)
	}
	gs.CloseConnections()

	engine.Shutdown()
	logger.Info("Server stopped")
	return nil
}

// openAccountStore connects the configured account backend. The returned
// func releases it.
func openAccountStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (account.Store, func(), error) {
	switch cfg.AccountsBackend {
	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Accounts stored in PostgreSQL")
		return database.NewAccountStore(pool), pool.Close, nil
	case config.BackendSQLite:
		s, err := storage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Accounts stored in SQLite at %s", cfg.SQLitePath)
		return s, closeLogged(s, logger), nil
	default:
		logger.Warn("Accounts kept in memory; they are lost on restart")
		return account.NewMemoryStore(), func() {}, nil
	}
}

func closeLogged(c io.Closer, logger logrus.FieldLogger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warnf("Failed to close account store: %v", err)
		}
	}
}

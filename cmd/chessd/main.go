package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/chess-hub/internal/archive"
	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/config"
	"github.com/park285/chess-hub/internal/dispatch"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/ids"
	"github.com/park285/chess-hub/internal/lobby"
	"github.com/park285/chess-hub/internal/msgcat"
	"github.com/park285/chess-hub/internal/notify"
	"github.com/park285/chess-hub/internal/obslog"
	"github.com/park285/chess-hub/internal/session"
	"github.com/park285/chess-hub/internal/store"
	"github.com/park285/chess-hub/internal/tournament"
	"github.com/park285/chess-hub/internal/wsserver"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := obslog.Init(cfg.Log)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("chessd_exit", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	cat, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		return err
	}

	var (
		st     store.Store
		mirror lobby.Mirror
	)
	if cfg.RedisURL != "" {
		rs, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		st, mirror = rs, rs
	} else {
		st = store.NewMemory()
	}
	defer func() { _ = st.Close() }()
	alloc := ids.NewAllocator(st)

	var sinks []session.ResultSink
	if cfg.DatabaseURL != "" {
		repo, err := archive.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()
		sinks = append(sinks, repo)
	}
	if cfg.ResultWebhookURL != "" {
		hook, err := notify.New(cfg.ResultWebhookURL)
		if err != nil {
			return err
		}
		sinks = append(sinks, hook)
	}

	reg := hub.NewRegistry()
	games := session.NewManager(board.NewChess(), reg,
		session.WithIDs(alloc),
		session.WithResultSinks(sinks...),
	)
	tours := tournament.NewManager(games, reg,
		tournament.WithIDs(alloc),
		tournament.WithCatalog(cat),
		tournament.WithStartAt(cfg.TournamentStartAt),
		tournament.WithTimeControl(cfg.TournamentTC),
	)
	lob := lobby.New(reg, games, tours, mirror)
	d := dispatch.New(reg, games, tours, lob, cat)
	ws := wsserver.New(d, wsserver.Options{
		OriginPatterns:  cfg.AllowedOrigins,
		SendBuffer:      cfg.SendBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
		PingInterval:    cfg.PingInterval,
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, ws)
	mux.HandleFunc("/healthz", ws.Healthz)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodOptions},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obslog.L().Info("chessd_listen",
			zap.String("addr", cfg.ListenAddr),
			zap.String("ws_path", cfg.WSPath),
			zap.Bool("redis", cfg.RedisURL != ""),
			zap.Int("result_sinks", len(sinks)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ws.Shutdown(sctx); err != nil {
			obslog.L().Warn("ws_shutdown_error", zap.Error(err))
		}
		return srv.Shutdown(sctx)
	})
	err = g.Wait()
	obslog.L().Info("chessd_stopped", zap.Int("connections", reg.Len()))
	return err
}

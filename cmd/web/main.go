package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spinwheel/internal/audio"
	"spinwheel/internal/config"
	"spinwheel/internal/game"
	"spinwheel/internal/handlers"
	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/storage/sqlite"
)

func main() {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)
	log.Info("starting spinwheel", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	wf, err := config.LoadWheel(cfg.WheelFile)
	if err != nil {
		log.Error("failed to load wheel", sl.Err(err))
		os.Exit(1)
	}

	opts := []game.Option{
		game.WithLogger(log),
		game.WithFrameInterval(cfg.FrameInterval),
	}
	if cfg.DatabasePath != "" {
		ledger, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			log.Error("failed to init storage", sl.Err(err))
			os.Exit(1)
		}
		defer ledger.Close()
		opts = append(opts, game.WithLedger(ledger))
	}

	store, err := game.NewStore(wf, opts...)
	if err != nil {
		log.Error("failed to build wheel", sl.Err(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Hx-Request"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Error("failed to mount static files", sl.Err(err))
		os.Exit(1)
	}

	homeHandler := handlers.NewHomeHandler(store, cfg.DefaultLang, log)
	tableHandler := handlers.NewTableHandler(store, cfg.BaseURL, cfg.DefaultLang, log)
	audioHandler := handlers.NewAudioHandler(audio.NewLibrary(), log)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
		homeHandler.RegisterRoutes(r)
		tableHandler.RegisterRoutes(r)
		audioHandler.RegisterRoutes(r)
	})
	tableHandler.RegisterStream(r)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// SSE streams stay open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", slog.String("addr", "http://localhost"+cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", sl.Err(err))
	}
	store.Close()
	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return log
}

//go:embed static/*
var embeddedStatic embed.FS

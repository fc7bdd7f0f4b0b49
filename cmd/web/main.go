package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bucketsort/internal/config"
	"bucketsort/internal/cue"
	"bucketsort/internal/game"
	"bucketsort/internal/handlers"
)

const (
	sweepEvery = time.Minute
	// roomIdle is how long a page may hold a room without opening its socket.
	roomIdle = 2 * time.Minute
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	bank, err := cue.NewBank(beep.SampleRate(cfg.Cues.SampleRate))
	if err != nil {
		log.Fatal().Err(err).Msg("render cues")
	}

	store := game.NewStore(game.Options{
		Judge:      cfg.Judge(),
		Playground: cfg.Playground,
		Log:        log.Logger,
	})
	opts := handlers.Options{
		Rules:      cfg.Game.Rules,
		RewardCode: cfg.Game.RewardCode,
		VisitorTTL: cfg.Server.VisitorTTL,
		Log:        log.Logger,
	}

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("static")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Sockets and event streams outlive any request timeout.
	handlers.NewPlayHandler(store, opts).RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
		handlers.NewHomeHandler(store, opts).RegisterRoutes(r)
		handlers.NewCueHandler(bank).RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := store.Sweep(now, roomIdle); n > 0 {
					log.Debug().Int("rooms", n).Msg("swept idle rooms")
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr()).Int("target", cfg.Game.TargetCount).Int("seconds", cfg.Game.DurationSeconds).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
}

//go:embed static/*
var embeddedStatic embed.FS

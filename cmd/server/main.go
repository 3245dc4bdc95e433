package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wati-proxy/internal/api"
	"wati-proxy/internal/config"
	"wati-proxy/internal/database"
	"wati-proxy/internal/proxy"
	"wati-proxy/internal/wati"
	"wati-proxy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfig()
	setupLogger(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if count, err := database.Ping(startupCtx, db); err != nil {
		log.Error().Err(err).Msg("Database connection check failed")
	} else {
		log.Info().Int64("contacts", count).Msg("Database connected")
	}
	cancelStartup()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := ws.NewHub(cfg.CORSOrigins)
	go hub.Run(hubCtx)

	settings := database.NewSettingsStore(db)
	activity := database.NewActivityStore(db)
	activity.OnAppend = hub.NotifyActivity
	dispatcher := proxy.NewDispatcher(settings, wati.NewClient(), activity)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		DB:           db,
		Contacts:     database.NewContactStore(db),
		Messages:     database.NewMessageStore(db),
		Campaigns:    database.NewCampaignStore(db),
		Templates:    database.NewTemplateStore(db),
		Settings:     settings,
		Activity:     activity,
		Dispatcher:   dispatcher,
		Hub:          hub,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !cfg.AllowsAllOrigins(),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(router),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("WATI Proxy Server running")
		log.Info().Msgf("Health check: http://localhost:%s/health", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to run server")
		}
	}()

	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
	dispatcher.Close()
	stopHub()

	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

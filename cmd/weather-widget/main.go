package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PetoAdam/homenavi/weather-widget/internal/config"
	"github.com/PetoAdam/homenavi/weather-widget/internal/httpapi"
	"github.com/PetoAdam/homenavi/weather-widget/internal/observability"
	"github.com/PetoAdam/homenavi/weather-widget/internal/owm"
	"github.com/PetoAdam/homenavi/weather-widget/internal/session"
	"github.com/PetoAdam/homenavi/weather-widget/internal/widget"
)

const serviceName = "weather-widget"

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownObs, promHandler, tracer, err := observability.SetupObservability(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up observability", "error", err)
		os.Exit(1)
	}
	defer shutdownObs()

	if cfg.OpenWeatherAPIKey == "" {
		slog.Warn("OPENWEATHER_API_KEY is not set; every search will fail")
	}

	owmClient := owm.New(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	newWidget := func() *widget.Widget { return widget.New(owmClient, cfg.IconBaseURL) }
	sessions := session.New(cfg.SessionTTL, newWidget)
	go sessions.Run(ctx, cfg.SweepInterval)

	srv := httpapi.NewServer(sessions, newWidget)

	handler := httpapi.NewRouter(srv, httpapi.RouterOptions{
		ServiceName:    serviceName,
		Tracer:         tracer,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        promHandler,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("weather-widget started", "port", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

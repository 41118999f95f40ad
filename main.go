package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DamienReichhart/TradeForge-sub000/internal/api"
	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
	"github.com/DamienReichhart/TradeForge-sub000/internal/monitor"
	"github.com/DamienReichhart/TradeForge-sub000/internal/palette"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/cache"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/config"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/device"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/logging"
)

const appID = "tradeforge-dashboard"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, i18n.Get("ConfigLoadFailed")+"\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log := logging.Component(logger, "gateway")

	i18n.SetLanguage(i18n.ParseLanguage(cfg.Language))
	log.Info().Msg(i18n.Get("Starting"))
	log.Info().Msgf(i18n.Get("ConfigLoaded"), cfg.Port)
	log.Info().Msgf(i18n.Get("UsingBackend"), cfg.APIURL)

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "v0.1-dev"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pal, err := palette.Load(cfg.PalettePath)
	if err != nil {
		log.Fatal().Msgf(i18n.Get("PaletteLoadFailed"), err)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.APITimeout,
		RequestsPerSec: cfg.APIRequestsPerSec,
		Burst:          cfg.APIBurst,
		ClientID:       device.ClientID(appID),
	}, nil)

	if cfg.WaitReady > 0 {
		log.Info().Msgf(i18n.Get("WaitingForBackend"), cfg.WaitReady)
		if err := client.WaitReady(ctx, cfg.WaitReady); err != nil {
			log.Warn().Msgf(i18n.Get("BackendUnreachable"), err)
		} else {
			log.Info().Msg(i18n.Get("BackendReady"))
		}
	}

	// Verdicts are shared across editors; expired entries are swept.
	verdicts := cache.NewVerdictCache(cfg.VerdictCacheTTL)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := verdicts.Cleanup(); n > 0 {
					log.Debug().Int("evicted", n).Msg("verdict cache sweep")
				}
			}
		}
	}()

	bus := events.NewBus()
	metrics := monitor.NewGatewayMetrics()
	mon := &monitor.Monitor{Bus: bus, Metrics: metrics, Log: logging.Component(logger, "monitor")}
	mon.Start(ctx)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(bus, client, verdicts, pal, metrics, logging.Component(logger, "api"), api.Options{
		Debounce:       cfg.ValidationDebounce,
		Timeout:        cfg.APITimeout,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.AllowedOrigins,
		Version:        buildVersion,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Msgf(i18n.Get("ServerListening"), cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf(i18n.Get("APIServerError"), err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg(i18n.Get("ShuttingDown"))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	cancel()
}

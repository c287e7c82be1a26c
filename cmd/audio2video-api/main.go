package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ershuai-acc/audio2video/internal/compose"
	"github.com/ershuai-acc/audio2video/internal/config"
	"github.com/ershuai-acc/audio2video/internal/cover"
	"github.com/ershuai-acc/audio2video/internal/httpapi"
	"github.com/ershuai-acc/audio2video/internal/media"
	"github.com/ershuai-acc/audio2video/internal/observability"
	"github.com/ershuai-acc/audio2video/internal/recognize"
	"github.com/ershuai-acc/audio2video/internal/sign"
	"github.com/ershuai-acc/audio2video/internal/storage"
	"github.com/ershuai-acc/audio2video/internal/upstream/speech"
	"github.com/ershuai-acc/audio2video/internal/video"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	store, err := storage.New(cfg.WorkDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		os.Exit(1)
	}

	// Credentials gate the recognizer only. Without them the service
	// still composes videos from caller-supplied caption text; any call
	// that needs the recognition backend fails with a missing_credentials
	// error instead.
	var recognizer video.Recognizer
	creds, err := sign.LoadCredentials()
	switch {
	case err == nil:
		if creds.GatewayPath == "" {
			creds.GatewayPath = cfg.GatewayPath
		}
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		upstreamHTTPClient := &http.Client{Timeout: cfg.RecognizeTimeout, Transport: transport}
		client := speech.New(cfg.RecognizerBaseURL, creds, upstreamHTTPClient, speech.WithObserver(metrics.ObserveUpstream))
		recognizer = recognize.New(client, cfg.RecognizeTimeout)
	case errors.Is(err, sign.ErrMissingCredentials):
		logger.Warn("no gateway credentials found, recognizer disabled")
	default:
		fmt.Fprintf(os.Stderr, "credentials error: %v\n", err)
		os.Exit(1)
	}

	planner := compose.NewPlanner(cfg.FFmpegPath, cfg.CoverToolPath)
	runner := media.NewRunner(metrics.ObserveToolRun)
	prober := media.NewProber(cfg.FFprobePath)

	videoService := video.New(recognizer, prober, runner, store, planner, cfg.ComposeTimeout)
	coverService := cover.New(runner, planner, store.CoverDir(), cfg.ComposeTimeout)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Video:          videoService,
		Cover:          coverService,
		Recognizer:     recognizer != nil,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.ComposeTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}

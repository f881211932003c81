// Command firserver serves the streaming FIR filter over HTTP and
// websockets.
//
// Usage:
//
//	firserver [-config firstream.yaml]
//
// Routes:
//
//	GET  /health  liveness and open session count
//	POST /design  design a filter and return its taps and response
//	GET  /ws      websocket streaming session
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/internal/config"
	"github.com/cwbudde/algo-firstream/internal/logger"
	"github.com/cwbudde/algo-firstream/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		defer fallback.Sync()
		fallback.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	var presets []config.Preset
	if cfg.PresetsFile != "" {
		var err error
		if presets, err = config.LoadPresets(cfg.PresetsFile); err != nil {
			return err
		}
		log.Info("loaded filter presets", zap.String("file", cfg.PresetsFile), zap.Int("count", len(presets)))
	}

	gin.SetMode(gin.ReleaseMode)
	handler, err := server.NewHandler(cfg, presets, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(handler, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("starting http server",
			zap.String("addr", cfg.Server.Addr),
			zap.Int("frame_size", cfg.Filter.FrameSize),
			zap.Float64("sample_rate", cfg.Filter.SampleRate),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Int("sessions", handler.Sessions()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	handler.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// SPDX-License-Identifier: MIT

// Command daemon runs the robot command control plane: one HTTP port serving
// the command API, the status store, the MJPEG video feed, and prometheus
// metrics.
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lepetpal/lepetpal/internal/api"
	"github.com/lepetpal/lepetpal/internal/arm"
	"github.com/lepetpal/lepetpal/internal/command"
	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/dispenser"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/policy"
	"github.com/lepetpal/lepetpal/internal/safety"
	"github.com/lepetpal/lepetpal/internal/speaker"
	"github.com/lepetpal/lepetpal/internal/store"
	"github.com/lepetpal/lepetpal/internal/version"
	"github.com/lepetpal/lepetpal/internal/video"
)

const (
	shutdownTimeout = 10 * time.Second
	connectRetries  = 3
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "lepetpal"})
	logger := log.WithComponent("daemon")

	logger.Info().
		Str("event", "daemon.starting").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Int("port", cfg.Port).
		Bool("hardware", cfg.UseHardware).
		Str("model_mode", cfg.ModelMode).
		Msg("starting control plane")

	// Joint limits: calibration file when configured, factory defaults
	// otherwise. A broken file falls back to defaults and keeps running.
	cal := config.DefaultCalibration()
	if cfg.CalibrationPath != "" {
		loaded, err := config.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "daemon.calibration_fallback").
				Str("path", cfg.CalibrationPath).
				Msg("calibration load failed, using defaults")
		}
		cal = loaded
	}
	gate := safety.NewGate(cal, cfg.WorkspaceClear)

	driver, err := buildDriver(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			logger.Warn().Err(err).Str("event", "daemon.arm_stop_failed").Msg("arm stop failed")
		}
	}()

	runner, err := policy.New(cfg.ModelMode, cfg.ModelPath)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "daemon.model_fallback").
			Str("mode", cfg.ModelMode).
			Msg("model unavailable, falling back to scripted policy")
		runner, err = policy.New(policy.ModeScripted, "")
		if err != nil {
			return fmt.Errorf("scripted policy: %w", err)
		}
	}

	st := store.New()
	manager := command.New(st, driver, gate, runner, cfg.InferenceRateHz)

	var ttsBackend speaker.Backend
	if cfg.UseHardware {
		ttsBackend = speaker.NewCommandBackend(cfg.TTSCommand)
	} else {
		ttsBackend = speaker.LogBackend{}
	}
	spk := speaker.New(ttsBackend, 16)
	defer spk.Close()

	var frames video.FrameSource
	if cfg.CameraURL != "" {
		remote := video.NewRemoteSource(cfg.CameraURL)
		defer remote.Close()
		frames = remote
	} else {
		frames = video.NewSyntheticSource(cfg.StreamWidth, cfg.StreamHeight)
	}

	server := api.New(&cfg, api.Services{
		Store:     st,
		Manager:   manager,
		Dispenser: dispenser.NewServo(),
		Speaker:   spk,
		Frames:    frames,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("event", "daemon.listening").Str("addr", httpSrv.Addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.CalibrationPath != "" {
		g.Go(func() error {
			return gate.Watch(gctx, cfg.CalibrationPath)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Str("event", "daemon.stopping").Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		// Let in-flight command workers reach a terminal state before the
		// deferred arm stop cuts the wire.
		manager.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Str("event", "daemon.stopped").Msg("control plane stopped")
	return nil
}

// buildDriver selects the mock or the serial driver and, for hardware,
// retries the connect a few times before giving up.
func buildDriver(cfg config.Config, logger zerolog.Logger) (arm.Driver, error) {
	if !cfg.UseHardware {
		mock := arm.NewMock()
		mock.Connect()
		logger.Info().Str("event", "daemon.arm_mock").Msg("using mock arm driver")
		return mock, nil
	}

	serial := arm.NewSerial(cfg.ArmPort)
	for attempt := 1; attempt <= connectRetries; attempt++ {
		if serial.Connect() {
			return serial, nil
		}
		logger.Warn().
			Str("event", "daemon.arm_connect_retry").
			Str("port", cfg.ArmPort).
			Int("attempt", attempt).
			Msg("arm connect failed, retrying")
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("arm: could not open %s after %d attempts", cfg.ArmPort, connectRetries)
}

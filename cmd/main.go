package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/handlers"
	"fermenstation/internal/hardware"
	"fermenstation/internal/logger"
	"fermenstation/internal/metric"
	"fermenstation/internal/models"
	"fermenstation/internal/remote"
	"fermenstation/internal/repository"
	"fermenstation/internal/repository/db"
	"fermenstation/internal/server"
	"fermenstation/internal/service"
	"fermenstation/internal/telemetry"
	"fermenstation/internal/wifi"

	"github.com/spf13/pflag"
)

// restartExitCode tells the supervisor (systemd Restart=on-failure) to start us again.
const restartExitCode = 3

const shutdownTimeout = 10 * time.Second

func main() {
	if run() {
		os.Exit(restartExitCode)
	}
}

// run wires the application and blocks until shutdown. It reports whether a
// restart was requested; deferred cleanup has run by the time it returns.
func run() bool {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false
		}
		logger.Get(logger.InfoLevel).Fatalw("invalid flags", "err", err)
	}

	settings, err := config.Load(fs)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.New(settings.LogLevel, logger.NewRing(settings.Control.LogBufferSize))

	conn, err := db.InitDB(settings.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", settings.DBPath)
	}
	defer closeDB(conn, log)

	repos := repository.NewRepository(conn)
	deviceCfg := loadDeviceConfig(repos.ConfigRepo, log)

	board, err := hardware.Open(settings.Hardware)
	if err != nil {
		log.Fatalw("failed to open hardware", "err", err, "driver", settings.Hardware.Driver)
	}
	defer func() {
		if cerr := board.Close(); cerr != nil {
			log.Warnw("hardware_close_failed", "err", cerr)
		}
	}()

	sinks := telemetry.FromSettings(settings.Telemetry, deviceCfg.DeviceID, log)
	defer sinks.Close()

	metrics := metric.New()
	services := service.NewService(repos, deviceCfg, service.Deps{
		Board:    board,
		Link:     openLink(settings.Network, deviceCfg),
		Remote:   remote.New(settings.Backend),
		Sink:     sinks,
		Metrics:  metrics,
		Logger:   log,
		Settings: settings,
	})

	restart := make(chan struct{}, 1)
	apiHandler := handlers.NewHandler(services, log, metrics.Handler(), func() {
		// give the response a moment to reach the client
		time.Sleep(time.Second)
		select {
		case restart <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Loop.Run(ctx)
	}()

	srv := server.New(settings.Port, apiHandler.InitRoutes())
	go func() {
		log.Infow("http_server_started", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	restarting := waitForShutdown(restart, log)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	<-loopDone

	if restarting {
		log.Warnw("restarting", "exit_code", restartExitCode)
	}
	return restarting
}

// loadDeviceConfig reads the stored configuration, falling back to factory
// defaults when the store is unreadable.
func loadDeviceConfig(repo repository.ConfigRepo, log *logger.Logger) models.DeviceConfig {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := repo.Load(ctx)
	if err != nil {
		log.Errorw("config_load_failed", "err", err)
		return models.DefaultDeviceConfig()
	}
	log.Infow("config_loaded", "ssid", cfg.SSID, "device_id", cfg.DeviceID, "process_id", cfg.ProcessID)
	return cfg
}

// openLink picks the network driver. The simulated link knows only the
// credentials stored at boot.
func openLink(s config.NetworkSettings, cfg models.DeviceConfig) wifi.Link {
	if s.Driver == config.DriverNMCLI {
		return wifi.NewNMCLI(s.Interface)
	}
	networks := map[string]string{}
	if cfg.HasCredentials() {
		networks[cfg.SSID] = cfg.Password
	}
	return wifi.NewSimulated("", networks)
}

// waitForShutdown blocks until a termination signal or a restart request and
// reports which one it was.
func waitForShutdown(restart <-chan struct{}, log *logger.Logger) bool {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
		return false
	case <-restart:
		log.Infow("shutting down for restart")
		return true
	}
}

func closeDB(conn *sql.DB, log *logger.Logger) {
	if err := conn.Close(); err != nil {
		log.Warnw("failed to close sqlite", "err", err)
	}
}

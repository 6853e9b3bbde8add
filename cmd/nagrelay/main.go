// cmd/nagrelay/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"nagrelay/internal/command"
	"nagrelay/internal/config"
	"nagrelay/internal/metrics"
	"nagrelay/internal/nagios"
	"nagrelay/internal/state"
	"nagrelay/internal/web"
)

func main() {
	configFile := flag.String("config", "", "Optional YAML configuration file")
	port := flag.String("port", "", "Listen address, e.g. :8080")
	statusFile := flag.String("status-file", "", "Path to the engine's status file (required)")
	commandFile := flag.String("command-file", "", "Path to the engine's external command file")
	logFile := flag.String("log-file", "", "Path to the engine's log file")
	allowOrigin := flag.String("allow-origin", "", "Value for Access-Control-Allow-Origin")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Only log warnings and errors")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Println("nagrelay v1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the config file.
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *statusFile != "" {
		cfg.Engine.StatusFile = *statusFile
	}
	if *commandFile != "" {
		cfg.Engine.CommandFile = *commandFile
	}
	if *logFile != "" {
		cfg.Engine.LogFile = *logFile
	}
	if *allowOrigin != "" {
		cfg.Server.AllowOrigin = *allowOrigin
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	} else if *quiet {
		cfg.Logging.Level = "warn"
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"status_file": cfg.Engine.StatusFile,
	}).Info("Starting nagrelay")

	collector := metrics.NewCollector()

	provider := state.NewProvider(cfg.Engine.StatusFile, cfg.Engine.PollInterval,
		nagios.ParseStatusFile, collector)

	dispatcher := command.NewDispatcher(cfg.Engine.CommandFile, collector)

	var (
		logs   *state.LogBuffer
		tailer *state.Tailer
	)
	if cfg.LogEnabled() {
		logs = state.NewLogBuffer(cfg.Engine.LogBufferSize)
		tailer = state.NewTailer(cfg.Engine.LogFile, cfg.Engine.LogPollInterval, logs, collector)
	} else {
		logrus.Info("No readable log file configured, log endpoint disabled")
	}

	webServer := web.NewServer(cfg, provider, logs, dispatcher, collector)
	provider.OnPublish(webServer.NotifySnapshot)
	if tailer != nil {
		tailer.OnLine(webServer.NotifyLogLine)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go provider.Run(ctx)
	if tailer != nil {
		go tailer.Run(ctx)
	}
	webServer.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logrus.WithField("signal", sig).Info("Received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Web server shutdown was not clean")
	}

	logrus.Info("Shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

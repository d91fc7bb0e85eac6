package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"pilot/internal/config"
	"pilot/internal/ipc"
	"pilot/internal/metrics"
	"pilot/internal/pilot"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "", "Config file (.toml, .yaml)")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides config)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for OpenAI")
	socket := cli.StringP("socket", "s", "", "Control socket path")
	continuous := cli.Bool("listen", false, "Keep listening for the wake word")
	dryRun := cli.Bool("dry-run", false, "Record input events instead of injecting them")
	metricsAddr := cli.String("metrics", "", "Serve prometheus metrics on this address")
	cli.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "path", *cfgFile, "err", err)
		os.Exit(1)
	}
	overrideFlags(&cfg, *logLevel, *proxyAddr, *socket, *metricsAddr, *continuous, *dryRun)
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid config", "err", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[cfg.LogLevel],
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	rt, err := pilot.Build(cfg, config.SecretsFromEnv(), pilot.Options{Microphone: true}, log.Default())
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go rt.Voice.Run(ctx)

	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, log.Default())
	}

	ctl := &control{rt: rt}
	srv, err := ipc.Listen(cfg.Socket, ctl.handle, log.Default())
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Error("Control server stopped", "err", err)
		}
	}()

	log.Info("Boot up - successful", "socket", srv.Path(), "listen", cfg.Listen.Continuous, "voice", rt.Listener != nil)

	if cfg.Listen.Continuous && rt.Listener != nil {
		commands := make(chan string)
		go func() {
			if err := rt.Listener.Run(ctx, commands); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Listener stopped", "err", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				log.Info("Shutting down")
				return
			case cmd := <-commands:
				rt.Assistant.Handle(ctx, cmd)
			}
		}
	}

	<-ctx.Done()
	log.Info("Shutting down")
}

func overrideFlags(cfg *config.Config, logLevel, proxyAddr, socket, metricsAddr string, continuous, dryRun bool) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if proxyAddr != "" {
		cfg.Proxy = proxyAddr
	}
	if socket != "" {
		cfg.Socket = socket
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	cfg.Listen.Continuous = cfg.Listen.Continuous || continuous
	cfg.DryRun = cfg.DryRun || dryRun
}

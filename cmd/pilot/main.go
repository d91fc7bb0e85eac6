package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"pilot/internal/config"
	"pilot/internal/pilot"
	"pilot/internal/shard"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "", "Config file (.toml, .yaml)")
	name := cli.StringP("name", "n", shard.DefaultName, "Name on the bus")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{Level: log.LevelInfo})))
	log.Info("Starting pilot shard")

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "path", *cfgFile, "err", err)
		os.Exit(1)
	}

	wsURL := os.Getenv("BUS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8092/ws"
	}

	rt, err := pilot.Build(cfg, config.SecretsFromEnv(), pilot.Options{Whisper: true}, log.Default())
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go rt.Voice.Run(ctx)

	s := shard.New(shard.Config{URL: wsURL, Name: *name}, rt.Assistant, shard.Transcribe(rt.Transcribe), log.Default())
	if err := s.Run(ctx); err != nil {
		log.Error("Shard stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Shutting down")
}

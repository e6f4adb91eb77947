// tail connects to the Spooled realtime endpoint and streams channel
// events to the console.
// Usage: go run ./cmd/tail --config tail.yaml jobs queue:default
//
// Flags override the config file; positional arguments are channel names
// and override the configured channel list.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Spooled-Cloud/spooled-dashboard-sub000/internal/config"
	"github.com/Spooled-Cloud/spooled-dashboard-sub000/internal/realtime"
	"github.com/Spooled-Cloud/spooled-dashboard-sub000/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	urlFlag := flag.String("url", "", "realtime endpoint, overrides config")
	tokenFlag := flag.String("token", "", "access token, overrides config")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *urlFlag != "" {
		cfg.Realtime.URL = *urlFlag
	}
	if *tokenFlag != "" {
		cfg.Realtime.AccessToken = *tokenFlag
	}
	channels := cfg.Channels
	if flag.NArg() > 0 {
		channels = flag.Args()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	logger.Info("spooled tail", "version", version.String(), "url", cfg.Realtime.URL)

	client := realtime.NewClient(realtime.Config{
		URL:                  cfg.Realtime.URL,
		HeartbeatInterval:    cfg.Realtime.HeartbeatInterval,
		ReconnectBaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		ReconnectMultiplier:  cfg.Realtime.ReconnectMultiplier,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
	}, logger)

	if cfg.Realtime.AccessToken != "" {
		client.SetAccessToken(cfg.Realtime.AccessToken)
	}

	client.OnConnect(func() {
		logger.Info("connected", "state", client.State())
	})
	client.OnDisconnect(func() {
		logger.Info("disconnected", "state", client.State())
	})

	for _, channel := range channels {
		channel := channel
		client.Subscribe(channel, func(ev realtime.Event) {
			if *verbose {
				logger.Info("event", "channel", ev.Channel, "type", ev.Type, "data", string(ev.Data))
				return
			}
			logger.Info("event", "channel", ev.Channel, "type", ev.Type)
		})
	}

	logger.Info("tailing channels", "channels", channels)
	client.Connect()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	client.Disconnect()
}

func loadConfig(path string) (*config.TailConfig, error) {
	if path == "" {
		cfg := &config.TailConfig{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

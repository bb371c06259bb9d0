// ryobi-gdo-2-mqtt bridges Ryobi garage door openers onto an MQTT broker.
//
// It logs into the Ryobi cloud, discovers the account's devices, holds one
// push-stream connection per device and republishes every state change as a
// retained MQTT message. Commands published to the device set topics travel
// the other way.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/bridge"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/config"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/logging"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so it can return
// errors for consistent exit handling.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ryobi-gdo-2-mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// One HTTP client shared by every cloud call so connection pools are
	// reused across devices.
	httpClient := &http.Client{Timeout: cfg.GetRequestTimeout()}
	defer httpClient.CloseIdleConnections()

	ryobiClient := bridge.NewClient(cfg, httpClient, log.With("component", "ryobi"))

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	coordinator := bridge.NewCoordinator(cfg, ryobiClient, mqttClient, log.With("component", "coordinator"))
	if err := coordinator.Start(ctx); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	defer func() {
		log.Info("stopping coordinator")
		coordinator.Stop()
	}()
	log.Info("bridge running", "devices", coordinator.DeviceCount())

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// loadConfig reads the YAML config named by RYOBI_CONFIG (or the default
// path). When no config file exists, configuration comes entirely from
// environment variables.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	path := os.Getenv("RYOBI_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info("no config file found, using environment variables", "path", path)
		return config.LoadFromEnv()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info("configuration loaded", "path", path)
	return cfg, nil
}

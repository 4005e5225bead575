// dscbridge - DSC PowerSeries security panel bridge
//
// This is the main entry point for the bridge. It connects a DSC
// Keybus interface module to an MQTT broker, publishing panel status
// as retained messages and accepting arm/disarm commands, with
// optional push/SMS notifications, an SQLite event journal, and
// InfluxDB event telemetry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ColinNg/dscKeybusInterface/internal/bridge"
	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/config"
	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/influxdb"
	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/logging"
	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/mqtt"
	"github.com/ColinNg/dscKeybusInterface/internal/notify"
	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting dscbridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the panel feed. The connection to the interface module is
	// established lazily by the run loop's Service calls, so a panel
	// outage at startup is tolerated the same way as one mid-run.
	feed := panel.NewFeed(panel.FeedConfig{
		Address:           cfg.Panel.Address,
		ReconnectInterval: cfg.GetPanelReconnectInterval(),
	})
	feed.SetLogger(log)
	defer func() {
		log.Info("closing panel feed")
		if closeErr := feed.Close(); closeErr != nil {
			log.Error("error closing panel feed", "error", closeErr)
		}
	}()
	log.Info("panel feed created",
		"address", cfg.Panel.Address,
		"partitions", cfg.Panel.Partitions,
	)

	// Connect to MQTT broker
	topics := mqtt.NewTopics(cfg.Topics)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics.Availability())
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks. Reconnection itself is driven by
	// the bridge's connection supervisor so that every re-established
	// session is paired with a full state resync.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT session established")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Notification client (optional)
	var notifier bridge.Notifier
	if cfg.Notify.Enabled {
		notifyClient := notify.New(notify.Config{
			Host:            cfg.Notify.Host,
			Port:            cfg.Notify.Port,
			Path:            cfg.Notify.Path,
			AuthToken:       cfg.Notify.AuthToken,
			To:              cfg.Notify.To,
			From:            cfg.Notify.From,
			ResponseTimeout: cfg.GetNotifyTimeout(),
		}, feed)
		notifyClient.SetLogger(log)
		notifier = notifyClient
		log.Info("notifications enabled",
			"host", cfg.Notify.Host,
			"port", cfg.Notify.Port,
		)
	} else {
		log.Info("notifications disabled")
	}

	// Event journal (optional)
	var journal *bridge.Journal
	if cfg.Journal.Enabled {
		journal, err = bridge.OpenJournal(cfg.Journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := journal.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		log.Info("journal opened", "path", cfg.Journal.Path)
	} else {
		log.Info("journal disabled")
	}

	// Connect to InfluxDB (optional)
	var telemetry bridge.Telemetry
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, journal, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Assemble and run the bridge loop. Run blocks until the context is
	// cancelled; deferred Close() calls then run in reverse order.
	b := bridge.New(bridge.Options{
		Source:        feed,
		Publisher:     mqttClient,
		Connector:     mqttClient,
		Notifier:      notifier,
		Journal:       journal,
		Telemetry:     telemetry,
		Topics:        topics,
		QoS:           byte(cfg.MQTT.QoS),
		Partitions:    cfg.Panel.Partitions,
		AccessCode:    cfg.Panel.AccessCode,
		NotifyPrefix:  cfg.Notify.Prefix,
		RetryInterval: cfg.GetRetryInterval(),
		Logger:        log,
	})

	log.Info("initialisation complete, bridge running")

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bridge loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("dscbridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DSCBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DSCBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - journal: Event journal to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, journal *bridge.Journal, influxClient *influxdb.Client) error {
	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check journal (if enabled)
	if journal != nil {
		if err := journal.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// The panel feed connects lazily inside the run loop; its health is
	// observable on the bus as stale retained state rather than at
	// startup.

	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Panel limits fixed by the Keybus protocol.
const (
	// MaxPartitions is the highest partition number the panel reports.
	MaxPartitions = 8

	// MaxZones is the highest zone number the panel reports.
	MaxZones = 64
)

// Config is the root configuration structure for the bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Panel      PanelConfig      `yaml:"panel"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Topics     TopicsConfig     `yaml:"topics"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Notify     NotifyConfig     `yaml:"notify"`
	Journal    JournalConfig    `yaml:"journal"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PanelConfig contains security-panel settings.
type PanelConfig struct {
	// Partitions is the number of partitions in service (1..8).
	Partitions int `yaml:"partitions"`

	// AccessCode is written to the panel to disarm a partition.
	AccessCode string `yaml:"access_code"`

	// Address is the host:port of the Keybus interface module's status
	// feed.
	Address string `yaml:"address"`

	// ReconnectIntervalMS is the delay between feed reconnection
	// attempts, in milliseconds.
	ReconnectIntervalMS int `yaml:"reconnect_interval_ms"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TopicsConfig contains the configurable MQTT topic prefixes.
// Partition and zone numbers are appended in decimal, 1-based.
type TopicsConfig struct {
	Partition    string `yaml:"partition"`
	Zone         string `yaml:"zone"`
	ZoneAlarm    string `yaml:"zone_alarm"`
	Fire         string `yaml:"fire"`
	Power        string `yaml:"power"`
	Keybus       string `yaml:"keybus"`
	Command      string `yaml:"command"`
	Availability string `yaml:"availability"`
}

// SupervisorConfig contains connection supervision settings.
type SupervisorConfig struct {
	// RetryIntervalMS is the fixed delay between reconnection attempts,
	// in milliseconds. A deployment may substitute a growing policy
	// without violating the contract; the default mirrors the
	// resource-constrained reference behaviour.
	RetryIntervalMS int `yaml:"retry_interval_ms"`
}

// NotifyConfig contains push/SMS notification endpoint settings.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`

	// Host and Port identify the HTTPS endpoint.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Path is the request path, e.g. "/2010-04-01/Accounts/<sid>/Messages".
	Path string `yaml:"path"`

	// AuthToken is the pre-encoded Basic credential (base64 of sid:token).
	AuthToken string `yaml:"auth_token"`

	// To and From are phone numbers without the leading "+".
	To   string `yaml:"to"`
	From string `yaml:"from"`

	// Prefix is prepended to every message body.
	Prefix string `yaml:"prefix"`

	// TimeoutMS bounds the wait for the HTTP response, in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`
}

// JournalConfig contains event journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB event telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DSCBRIDGE_SECTION_KEY
// For example: DSCBRIDGE_MQTT_HOST, DSCBRIDGE_PANEL_ACCESS_CODE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Topic prefixes mirror the reference Keybus topic scheme.
func defaultConfig() *Config {
	return &Config{
		Panel: PanelConfig{
			Partitions:          1,
			Address:             "127.0.0.1:4025",
			ReconnectIntervalMS: 5000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dscbridge",
			},
			QoS: 0,
		},
		Topics: TopicsConfig{
			Partition:    "dsc/Get/Partition",
			Zone:         "dsc/Get/Zone",
			ZoneAlarm:    "dsc/Get/ZoneAlarm",
			Fire:         "dsc/Get/Fire",
			Power:        "dsc/Get/Power",
			Keybus:       "dsc/Get/Keybus",
			Command:      "dsc/Set",
			Availability: "dsc/Status",
		},
		Supervisor: SupervisorConfig{
			RetryIntervalMS: 5000,
		},
		Notify: NotifyConfig{
			Host:      "api.twilio.com",
			Port:      443,
			TimeoutMS: 3000,
		},
		Journal: JournalConfig{
			Path:        "./data/dscbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DSCBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Panel
	if v := os.Getenv("DSCBRIDGE_PANEL_ACCESS_CODE"); v != "" {
		cfg.Panel.AccessCode = v
	}
	if v := os.Getenv("DSCBRIDGE_PANEL_PARTITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Panel.Partitions = n
		}
	}
	if v := os.Getenv("DSCBRIDGE_PANEL_ADDRESS"); v != "" {
		cfg.Panel.Address = v
	}

	// MQTT
	if v := os.Getenv("DSCBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DSCBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DSCBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Notification endpoint
	if v := os.Getenv("DSCBRIDGE_NOTIFY_AUTH_TOKEN"); v != "" {
		cfg.Notify.AuthToken = v
	}

	// InfluxDB
	if v := os.Getenv("DSCBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Panel validation
	if c.Panel.Partitions < 1 || c.Panel.Partitions > MaxPartitions {
		errs = append(errs, fmt.Sprintf("panel.partitions must be between 1 and %d", MaxPartitions))
	}
	if c.Panel.Address == "" {
		errs = append(errs, "panel.address is required")
	}
	if c.Panel.ReconnectIntervalMS < 1 {
		errs = append(errs, "panel.reconnect_interval_ms must be positive")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	// Topic prefixes must be present; an empty prefix would collide the
	// partition messages onto the zone namespace.
	if c.Topics.Partition == "" || c.Topics.Zone == "" || c.Topics.Fire == "" {
		errs = append(errs, "topics.partition, topics.zone and topics.fire are required")
	}
	if c.Topics.Command == "" {
		errs = append(errs, "topics.command is required")
	}

	// Supervisor validation
	if c.Supervisor.RetryIntervalMS < 1 {
		errs = append(errs, "supervisor.retry_interval_ms must be positive")
	}

	// Notification validation (only when enabled)
	if c.Notify.Enabled {
		if c.Notify.Host == "" {
			errs = append(errs, "notify.host is required when notify.enabled")
		}
		if c.Notify.Path == "" {
			errs = append(errs, "notify.path is required when notify.enabled")
		}
		if c.Notify.AuthToken == "" {
			errs = append(errs, "notify.auth_token is required when notify.enabled (set DSCBRIDGE_NOTIFY_AUTH_TOKEN)")
		}
		if c.Notify.TimeoutMS < 1 {
			errs = append(errs, "notify.timeout_ms must be positive")
		}
	}

	// Journal validation (only when enabled)
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRetryInterval returns the supervisor retry interval as a Duration.
func (c *Config) GetRetryInterval() time.Duration {
	return time.Duration(c.Supervisor.RetryIntervalMS) * time.Millisecond
}

// GetNotifyTimeout returns the notification response timeout as a Duration.
func (c *Config) GetNotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutMS) * time.Millisecond
}

// GetPanelReconnectInterval returns the feed reconnect interval as a Duration.
func (c *Config) GetPanelReconnectInterval() time.Duration {
	return time.Duration(c.Panel.ReconnectIntervalMS) * time.Millisecond
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is the sentinel wrapping every configuration violation
// Validate collects, so callers can distinguish a configuration error from
// other startup failures via errors.Is.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the root configuration document for the device-control engine.
type Config struct {
	Devices            []DeviceConfig `yaml:"devices"`
	Groups             []GroupConfig  `yaml:"groups"`
	Retry              RetryConfig    `yaml:"retry"`
	MonitorIntervalSec int            `yaml:"monitor_interval_sec"`
	MaxConcurrency     int            `yaml:"max_concurrency"`
	ScheduleDBPath     string         `yaml:"schedule_db_path"`
	ReportDir          string         `yaml:"report_dir"`
	LogDir             string         `yaml:"log_dir"`
	Timezone           string         `yaml:"timezone"`

	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
}

// DeviceConfig describes one device as it appears in the configuration document.
type DeviceConfig struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"` // telnet_projector | jsonrpc_projector | pc_wake | generic_tcp | cubes_tcp
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	GroupIDs    []string           `yaml:"group_ids"`
	Credentials *CredentialsConfig `yaml:"credentials,omitempty"`
	ProbeSpec   *ProbeSpecConfig   `yaml:"probe_spec,omitempty"`
}

// CredentialsConfig holds per-type device credentials.
type CredentialsConfig struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	MAC      string `yaml:"mac,omitempty"`
	WakePort int    `yaml:"wake_port,omitempty"` // UDP port for the pc_wake magic packet (default 9); shutdown uses the device port
}

// ProbeSpecConfig describes how the Health Prober should test a device.
type ProbeSpecConfig struct {
	Kind string `yaml:"kind"` // icmp | tcp | http
	Port int    `yaml:"port,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// GroupConfig describes a named, ordered set of devices.
type GroupConfig struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	DeviceIDs []string `yaml:"device_ids"`
}

// RetryConfig overrides the RetryPolicy defaults.
type RetryConfig struct {
	MaxAttempts          int     `yaml:"max_attempts"`
	BaseIntervalSec      int     `yaml:"base_interval_sec"`
	BackoffMultiplier    float64 `yaml:"backoff_multiplier"`
	PerAttemptTimeoutSec int     `yaml:"per_attempt_timeout_sec"`
}

// ServerConfig contains HTTP control surface settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReadTimeoutSec int    `yaml:"read_timeout_sec"`
	WriteTimeout   int    `yaml:"write_timeout_sec"`
	IdleTimeoutSec int    `yaml:"idle_timeout_sec"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains control-surface auth settings.
type SecurityConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	AccessTokenTTLMin int    `yaml:"access_token_ttl_minutes"`

	// BootstrapAdminUsername/Password seed an admin operator account on
	// startup when no operator with this username exists. Subsequent runs
	// never touch an existing account with this username.
	BootstrapAdminUsername string `yaml:"bootstrap_admin_username"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`
}

// WebSocketConfig contains GET /events live-stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval_sec"`
	PongTimeout    int `yaml:"pong_timeout_sec"`
}

// MQTTConfig contains optional event fan-out settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig addresses the broker to connect to.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	TLS      bool   `yaml:"tls"`
}

// MQTTAuthConfig holds optional broker credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig tunes the client's auto-reconnect backoff.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay_sec"`
	MaxDelay     int `yaml:"max_delay_sec"`
}

// InfluxDBConfig contains the optional time-series sink settings: when
// enabled, the Monitor's per-cycle online and offline device counts land
// here. No per-device failure counts or probe-latency samples are sent.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval_sec"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// Loading order: defaults, then the YAML file, then AVENGINE_* environment
// variables. Validation runs last.
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

func defaultConfig() *Config {
	return &Config{
		Retry: RetryConfig{
			MaxAttempts:          3,
			BaseIntervalSec:      30,
			BackoffMultiplier:    2.0,
			PerAttemptTimeoutSec: 10,
		},
		MonitorIntervalSec: 60,
		MaxConcurrency:     10,
		ScheduleDBPath:     "./data/schedule.db",
		ReportDir:          "./data/reports",
		LogDir:             "./data/logs",
		Timezone:           "UTC",
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8090,
			ReadTimeoutSec: 15,
			WriteTimeout:   15,
			IdleTimeoutSec: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			AccessTokenTTLMin:      15,
			BootstrapAdminUsername: "admin",
			BootstrapAdminPassword: "admin",
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 1 << 16,
			PingInterval:   30,
			PongTimeout:    60,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:     1883,
				ClientID: "avengine",
			},
			QoS:       1,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     1000,
			FlushInterval: 1,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern AVENGINE_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AVENGINE_JWT_SECRET"); v != "" {
		cfg.Security.JWTSecret = v
	}
	if v := os.Getenv("AVENGINE_ADMIN_USERNAME"); v != "" {
		cfg.Security.BootstrapAdminUsername = v
	}
	if v := os.Getenv("AVENGINE_ADMIN_PASSWORD"); v != "" {
		cfg.Security.BootstrapAdminPassword = v
	}
	if v := os.Getenv("AVENGINE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("AVENGINE_SCHEDULE_DB_PATH"); v != "" {
		cfg.ScheduleDBPath = v
	}
	if v := os.Getenv("AVENGINE_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv("AVENGINE_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("AVENGINE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("AVENGINE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("AVENGINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for internal consistency. It collects
// every violation before returning, joined into one error.
func (c *Config) Validate() error {
	var errs []string

	if c.MaxConcurrency < 1 {
		errs = append(errs, "max_concurrency must be >= 1")
	}
	if c.MonitorIntervalSec < 1 {
		errs = append(errs, "monitor_interval_sec must be >= 1")
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseIntervalSec < 0 {
		errs = append(errs, "retry.base_interval_sec must be >= 0")
	}
	if c.Retry.BackoffMultiplier < 1 {
		errs = append(errs, "retry.backoff_multiplier must be >= 1")
	}
	if c.Retry.PerAttemptTimeoutSec < 1 {
		errs = append(errs, "retry.per_attempt_timeout_sec must be >= 1")
	}
	if c.ScheduleDBPath == "" {
		errs = append(errs, "schedule_db_path is required")
	}
	if c.ReportDir == "" {
		errs = append(errs, "report_dir is required")
	}
	if c.LogDir == "" {
		errs = append(errs, "log_dir is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is not a valid IANA zone", c.Timezone))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	const minJWTSecretLength = 16
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt_secret is required and must be at least 16 characters")
	}

	seen := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.ID == "" {
			errs = append(errs, "every device requires an id")
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("duplicate device id %q", d.ID))
		}
		seen[d.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// ReadTimeout returns the configured HTTP read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration { return time.Duration(c.Server.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the configured HTTP write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration { return time.Duration(c.Server.WriteTimeout) * time.Second }

// IdleTimeout returns the configured HTTP idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration { return time.Duration(c.Server.IdleTimeoutSec) * time.Second }

package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/pkg/file"
)

// ListenerConfig describes one UDP listener, each backed by its own ingestion session.
type ListenerConfig struct {
	Name    string `yaml:"name"`    // Name attached to events and metrics
	Port    int    `yaml:"port"`    // UDP port to bind on all interfaces
	Enabled bool   `yaml:"enabled"` // Enable/disable this listener
}

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level string `yaml:"level"` // zerolog level name (debug, info, warn, error)
	} `yaml:"log"`

	MQTT struct {
		Enabled            bool          `yaml:"enabled"`              // Publish events to an MQTT broker
		Broker             string        `yaml:"broker"`               // MQTT broker address
		ClientID           string        `yaml:"client_id"`            // MQTT client ID prefix
		CACertificate      string        `yaml:"ca_certificate"`       // Optional path to the CA certificate
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"` // Skip broker certificate verification
		TopicPrefix        string        `yaml:"topic_prefix"`         // Events go to <prefix>/<listener>/<type>
		QOS                int           `yaml:"qos"`                  // MQTT QoS level for event messages
		PublishTimeout     time.Duration `yaml:"publish_timeout"`      // Max time to wait for a publish to complete
	} `yaml:"mqtt"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"` // Serve Prometheus metrics
		Address string `yaml:"address"` // Listen address of the metrics HTTP server
		Path    string `yaml:"path"`    // HTTP path of the metrics endpoint
	} `yaml:"metrics"`

	Session struct {
		Timeout       time.Duration `yaml:"timeout"`        // Silence after which a source is disconnected
		CheckInterval time.Duration `yaml:"check_interval"` // Interval between liveness checks
	} `yaml:"session"`

	Listeners []ListenerConfig `yaml:"listeners"`
}

// LoadConfig loads the YAML configuration from the specified file, fills in
// defaults and validates the result.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", filename, err)
	}
	if !exists {
		return nil, fmt.Errorf("config file %s does not exist", filename)
	}

	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "gps-receiver"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "gps"
	}
	if c.MQTT.PublishTimeout == 0 {
		c.MQTT.PublishTimeout = 2 * time.Second
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9102"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Session.Timeout == 0 {
		c.Session.Timeout = constants.DefaultConnectionTimeout
	}
	if c.Session.CheckInterval == 0 {
		c.Session.CheckInterval = constants.DefaultLivenessCheckInterval
	}
}

// Validate checks the configuration for values the receiver cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Session.Timeout < 0 {
		errs = append(errs, fmt.Errorf("session.timeout must be positive, got %s", c.Session.Timeout))
	}
	if c.Session.CheckInterval < 0 {
		errs = append(errs, fmt.Errorf("session.check_interval must be positive, got %s", c.Session.CheckInterval))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QOS))
		}
	}

	names := make([]string, 0, len(c.Listeners))
	ports := make([]int, 0, len(c.Listeners))
	for i, l := range c.Listeners {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("listeners[%d].name is required", i))
		}
		if l.Port < constants.MinListenPort || l.Port > constants.MaxListenPort {
			errs = append(errs, fmt.Errorf("listeners[%d].port must be between %d and %d, got %d",
				i, constants.MinListenPort, constants.MaxListenPort, l.Port))
		}
		names = append(names, l.Name)
		if l.Enabled {
			ports = append(ports, l.Port)
		}
	}
	if dups := Duplicates(names); len(dups) > 0 {
		errs = append(errs, fmt.Errorf("listener names must be unique, duplicated: %v", dups))
	}
	if dups := Duplicates(ports); len(dups) > 0 {
		errs = append(errs, fmt.Errorf("enabled listeners must use distinct ports, duplicated: %v", dups))
	}
	if len(ports) == 0 {
		errs = append(errs, errors.New("at least one listener must be enabled"))
	}

	return errors.Join(errs...)
}

// EnabledListeners returns the listeners that should be started, in configuration order.
func (c *Config) EnabledListeners() []ListenerConfig {
	var out []ListenerConfig
	for _, l := range c.Listeners {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}

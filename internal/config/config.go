// Package config provides configuration management for the StageLights
// engine.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bbernstein/stagelights-go/internal/services/dmx"
)

// Config holds all configuration values for the engine and its host
// process. It is constructed once at startup and passed by reference; no
// package-level mutable state.
type Config struct {
	// Server configuration
	Port string `toml:"port"`
	Env  string `toml:"env"`

	// DMX output mode: usbserial, artnet, or sacn (unimplemented).
	DMXMode string `toml:"dmx_mode"`

	// Tick rate for the controller loop (Hz).
	TickRate int `toml:"tick_rate"`

	// Serial settings (usbserial mode).
	SerialPort string `toml:"serial_port"`
	SerialBaud int    `toml:"serial_baud"`

	// Art-Net settings.
	ArtNetBroadcast    string  `toml:"artnet_broadcast"`
	ArtNetPort         int     `toml:"artnet_port"`
	ArtNetNet          int     `toml:"artnet_net"`
	ArtNetSubnet       int     `toml:"artnet_subnet"`
	ArtNetMaxUniverse  int     `toml:"artnet_max_universe"`
	ArtNetPollInterval float64 `toml:"artnet_poll_interval"` // seconds

	// RDM settings.
	RDMEnabled          bool    `toml:"rdm_enabled"`
	RDMPollInterval     float64 `toml:"rdm_poll_interval"`     // seconds, clamped to 0.1-10
	RDMDiscoveryTimeout float64 `toml:"rdm_discovery_timeout"` // seconds
	RDMOnly             bool    `toml:"rdm_only"`

	// MQTT discovery publishing (disabled when BrokerURL is empty).
	MQTTBrokerURL   string `toml:"mqtt_broker_url"`
	MQTTTopicPrefix string `toml:"mqtt_topic_prefix"`

	// CORS configuration for the control API.
	CORSOrigin string `toml:"cors_origin"`
}

// Load builds configuration from environment variables with sensible
// defaults, then overlays an optional TOML file named by
// STAGELIGHTS_CONFIG.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "4000"),
		Env:  getEnv("ENV", "development"),

		DMXMode:  getEnv("DMX_MODE", string(dmx.ModeArtNet)),
		TickRate: getEnvInt("TICK_RATE", 40),

		SerialPort: getEnv("SERIAL_PORT", "/dev/ttyUSB0"),
		SerialBaud: getEnvInt("SERIAL_BAUD", 250000),

		ArtNetBroadcast:    getEnv("ARTNET_BROADCAST", ""),
		ArtNetPort:         getEnvInt("ARTNET_PORT", 6454),
		ArtNetNet:          getEnvInt("ARTNET_NET", 0),
		ArtNetSubnet:       getEnvInt("ARTNET_SUBNET", 0),
		ArtNetMaxUniverse:  getEnvInt("ARTNET_MAX_UNIVERSE", 16),
		ArtNetPollInterval: getEnvFloat("ARTNET_POLL_INTERVAL", 2.0),

		RDMEnabled:          getEnvBool("RDM_ENABLED", false),
		RDMPollInterval:     getEnvFloat("RDM_POLL_INTERVAL", 0.5),
		RDMDiscoveryTimeout: getEnvFloat("RDM_DISCOVERY_TIMEOUT", 5.0),
		RDMOnly:             getEnvBool("RDM_ONLY", false),

		MQTTBrokerURL:   getEnv("MQTT_BROKER_URL", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "stagelights"),

		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}

	if path := os.Getenv("STAGELIGHTS_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			log.Printf("⚠️ Failed to load config file %s: %v", path, err)
		}
	}

	cfg.clamp()
	return cfg
}

// overlayFile merges a TOML file over the current values.
func (c *Config) overlayFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("failed to parse toml: %w", err)
	}
	return nil
}

// clamp forces settings into their supported ranges.
func (c *Config) clamp() {
	if c.TickRate < 1 {
		c.TickRate = 40
	}
	if c.RDMPollInterval < 0.1 {
		c.RDMPollInterval = 0.1
	}
	if c.RDMPollInterval > 10 {
		c.RDMPollInterval = 10
	}
	if c.ArtNetPollInterval <= 0 {
		c.ArtNetPollInterval = 2.0
	}
	if c.ArtNetPort <= 0 {
		c.ArtNetPort = 6454
	}
}

// Mode returns the configured DMX mode.
func (c *Config) Mode() dmx.Mode {
	return dmx.Mode(c.DMXMode)
}

// TickInterval returns the controller loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// RDMOfflineThreshold is the silence after which a device goes offline.
func (c *Config) RDMOfflineThreshold() time.Duration {
	return time.Duration(3 * c.RDMPollInterval * float64(time.Second))
}

// RDMRemoveThreshold is the silence after which a device is dropped.
func (c *Config) RDMRemoveThreshold() time.Duration {
	return time.Duration(10 * c.RDMPollInterval * float64(time.Second))
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the float value of an environment variable or a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

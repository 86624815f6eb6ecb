// Package config loads service settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felo/mailnorm/internal/reply"
)

// Config holds application configuration
type Config struct {
	// Server settings
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	Log LogConfig `yaml:"log"`

	// Markers recognized by reply extraction
	Reply reply.Config `yaml:"reply"`

	// Batch settings
	Workers int `yaml:"workers"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Host:  "localhost",
		Port:  "8080",
		Log:   LogConfig{Level: "info"},
		Reply: reply.DefaultConfig(),
	}
}

// Load returns the defaults overridden by environment variables
func Load() *Config {
	cfg := Default()
	cfg.applyEnvVars()
	return cfg
}

// LoadFromFile loads a YAML file over the defaults, then applies
// environment variables
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvVars()
	return cfg, nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ReplyConfig returns a copy of the marker configuration, detached from c
func (c *Config) ReplyConfig() reply.Config {
	return reply.Config{
		Delimiters: append([]string(nil), c.Reply.Delimiters...),
		Footers:    append([]string(nil), c.Reply.Footers...),
	}
}

// applyEnvVars overrides values with non-empty environment variables
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILNORM_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("MAILNORM_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("MAILNORM_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MAILNORM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("MAILNORM_REPLY_DELIMITERS"); v != "" {
		var delimiters []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				delimiters = append(delimiters, d)
			}
		}
		c.Reply.Delimiters = delimiters
	}
}

// Package config loads and validates the primer configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level primer configuration file.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Memory   MemoryConfig   `yaml:"memory"`
	Assembly AssemblyConfig `yaml:"assembly"`
	Examples ExamplesConfig `yaml:"examples"`
	MCP      MCPConfig      `yaml:"mcp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig identifies the database the engine grounds context on.
type SourceConfig struct {
	Driver         string     `yaml:"driver"`
	DSN            string     `yaml:"dsn"`
	Schema         string     `yaml:"schema"`
	PrivateKeyPath string     `yaml:"private_key_path"`
	Pool           PoolConfig `yaml:"pool"`
}

// PoolConfig controls the connection pool for the source database.
type PoolConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// MemoryConfig bounds the history and error stores and optionally points
// them at a journal directory for cross-session persistence.
type MemoryConfig struct {
	HistoryCapacity int    `yaml:"history_capacity"`
	ErrorCapacity   int    `yaml:"error_capacity"`
	DataDir         string `yaml:"data_dir"`
	Persist         bool   `yaml:"persist"`
}

// AssemblyConfig tunes section selection and rendering.
type AssemblyConfig struct {
	SampleRows     int                 `yaml:"sample_rows"`
	ExampleLimit   int                 `yaml:"example_limit"`
	SectionTimeout string              `yaml:"section_timeout"`
	BusinessRules  string              `yaml:"business_rules"`
	Triggers       map[string][]string `yaml:"triggers"`
}

// ExamplesConfig supplies the few-shot library, inline or from a file.
type ExamplesConfig struct {
	File    string         `yaml:"file"`
	Entries []ExampleEntry `yaml:"entries"`
}

// ExampleEntry is one inline few-shot pair.
type ExampleEntry struct {
	Question string `yaml:"question"`
	SQL      string `yaml:"sql"`
	Note     string `yaml:"note"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `yaml:"transport"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Driver: "sqlite",
			Pool: PoolConfig{
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: "30m",
			},
		},
		Memory: MemoryConfig{
			HistoryCapacity: 10,
			ErrorCapacity:   5,
		},
		Assembly: AssemblyConfig{
			SampleRows:     3,
			ExampleLimit:   5,
			SectionTimeout: "5s",
		},
		MCP: MCPConfig{
			Transport: "stdio",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Source.Driver == "" {
		return fmt.Errorf("source: driver is required")
	}
	if c.Memory.HistoryCapacity < 1 {
		return fmt.Errorf("memory: history_capacity must be at least 1")
	}
	if c.Memory.ErrorCapacity < 1 {
		return fmt.Errorf("memory: error_capacity must be at least 1")
	}
	if c.Assembly.SampleRows < 1 {
		return fmt.Errorf("assembly: sample_rows must be at least 1")
	}
	if c.Assembly.ExampleLimit < 0 {
		return fmt.Errorf("assembly: example_limit must not be negative")
	}
	if _, err := c.SectionTimeout(); err != nil {
		return err
	}
	if _, err := c.ConnMaxLifetime(); err != nil {
		return err
	}
	return nil
}

// SectionTimeout parses assembly.section_timeout. Empty means no bound.
func (c *Config) SectionTimeout() (time.Duration, error) {
	if c.Assembly.SectionTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Assembly.SectionTimeout)
	if err != nil {
		return 0, fmt.Errorf("assembly: parse section_timeout: %w", err)
	}
	return d, nil
}

// ConnMaxLifetime parses source.pool.conn_max_lifetime. Empty means no limit.
func (c *Config) ConnMaxLifetime() (time.Duration, error) {
	if c.Source.Pool.ConnMaxLifetime == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Source.Pool.ConnMaxLifetime)
	if err != nil {
		return 0, fmt.Errorf("source: parse pool.conn_max_lifetime: %w", err)
	}
	return d, nil
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type WatchConfig struct {
	URL           string   `yaml:"url"`
	TickInterval  Duration `yaml:"tick_interval"`
	Stabilization Duration `yaml:"stabilization"`
}

// PipelineConfig controls the simulated provisioning pipeline served by
// `pulse serve`.
type PipelineConfig struct {
	StepDelay Duration `yaml:"step_delay"`
	FailAt    string   `yaml:"fail_at"`  // event type tag to fail at, empty for success
	OmitURL   bool     `yaml:"omit_url"` // finish with runner_ready instead of connection_status
	Loop      bool     `yaml:"loop"`     // restart the pipeline after it finishes
	RunnerID  int64    `yaml:"runner_id"`
	RunnerURL string   `yaml:"runner_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Watch: WatchConfig{
			URL:           "ws://127.0.0.1:8080/ws",
			TickInterval:  Duration(time.Second),
			Stabilization: Duration(2500 * time.Millisecond),
		},
		Pipeline: PipelineConfig{
			StepDelay: Duration(2 * time.Second),
			RunnerID:  1,
			RunnerURL: "https://runner-1.example.dev",
		},
	}
}

// Load reads a yaml config from path, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

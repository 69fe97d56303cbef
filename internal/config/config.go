package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Sim       SimConfig       `toml:"sim"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name string `toml:"name"`
}

type SimConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`
	RunSeed         int64         `toml:"run_seed"` // 0 = seed from clock at boot
	PoolCapacity    int           `toml:"pool_capacity"`
	SpawnInterval   time.Duration `toml:"spawn_interval"`
	AttemptBudget   int           `toml:"attempt_budget"` // max spawn attempts per tick
	ThreatDecayRate float64       `toml:"threat_decay_rate"`
}

type DataConfig struct {
	Templates string `toml:"templates"`
	Plan      string `toml:"plan"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "arenad",
		},
		Sim: SimConfig{
			TickRate:        100 * time.Millisecond,
			RunSeed:         0,
			PoolCapacity:    512,
			SpawnInterval:   time.Second,
			AttemptBudget:   4,
			ThreatDecayRate: 0.05,
		},
		Data: DataConfig{
			Templates: "data/yaml/enemy_templates.yaml",
			Plan:      "data/yaml/spawn_plan.yaml",
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

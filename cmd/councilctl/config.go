package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/councilctl/internal/probe"
)

// serverConfig is the resolved councilctl runtime configuration after
// defaults, file, and flag layering.
type serverConfig struct {
	Addr         string
	DataDir      string
	CorsOrigins  []string
	ProbeTimeout time.Duration
	LogLevel     string
}

type fileConfig struct {
	Addr           string   `toml:"addr"`
	DataDir        string   `toml:"data_dir"`
	CorsOrigins    []string `toml:"cors_origins"`
	ProbeTimeout   string   `toml:"probe_timeout"`
	ProbeTimeoutMS int64    `toml:"probe_timeout_ms"`
	LogLevel       string   `toml:"log_level"`
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Addr:         ":8001",
		DataDir:      "data",
		CorsOrigins:  []string{"http://localhost:3000"},
		ProbeTimeout: probe.DefaultTimeout,
		LogLevel:     "info",
	}
}

// loadServerConfig overlays one TOML file onto the defaults. Only keys
// actually present in the file override.
func loadServerConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serverConfig{}, fmt.Errorf("load councilctl config: %w", err)
	}

	if meta.IsDefined("addr") {
		if addr := strings.TrimSpace(raw.Addr); addr != "" {
			cfg.Addr = addr
		}
	}

	if meta.IsDefined("data_dir") {
		if dir := strings.TrimSpace(raw.DataDir); dir != "" {
			cfg.DataDir = dir
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("probe_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ProbeTimeout))
		if err != nil {
			return serverConfig{}, fmt.Errorf("parse probe_timeout: %w", err)
		}
		cfg.ProbeTimeout = d
	}

	if meta.IsDefined("probe_timeout_ms") {
		cfg.ProbeTimeout = time.Duration(raw.ProbeTimeoutMS) * time.Millisecond
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := validateServerConfig(cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

func validateServerConfig(cfg serverConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("councilctl config missing addr")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("councilctl config missing data_dir")
	}
	if cfg.ProbeTimeout <= 0 {
		return fmt.Errorf("councilctl config probe_timeout must be positive")
	}
	return nil
}

// configFilePath is where the council configuration itself lives, inside
// the data directory.
func (c serverConfig) configFilePath() string {
	return filepath.Join(c.DataDir, "cli_config.json")
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/councilctl/internal/api"
	"github.com/danmuck/councilctl/internal/council"
	"github.com/danmuck/councilctl/internal/observability"
	"github.com/danmuck/councilctl/internal/probe"
	"github.com/danmuck/councilctl/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a councilctl TOML config file")
	addr := flag.String("addr", "", "listen address override (e.g. :8001)")
	dataDir := flag.String("data-dir", "", "data directory override")
	probeTimeout := flag.Duration("probe-timeout", 0, "probe deadline override (e.g. 45s)")
	logLevel := flag.String("log-level", "", "log level override (debug|info|warn|error)")
	flag.Parse()

	cfg, err := resolveConfig(*configPath, *addr, *dataDir, *probeTimeout, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "councilctl: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("councilctl", cfg.LogLevel)

	svc := council.NewService(store.NewFileStore(cfg.configFilePath()))
	runner := probe.NewRunner(cfg.ProbeTimeout)
	srv := api.NewServer(api.Config{
		Addr:        cfg.Addr,
		CorsOrigins: cfg.CorsOrigins,
	}, svc, runner)

	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "councilctl: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the optional TOML file, and flag
// overrides, then validates the result.
func resolveConfig(path, addr, dataDir string, probeTimeout time.Duration, logLevel string) (serverConfig, error) {
	cfg := defaultServerConfig()
	if path != "" {
		loaded, err := loadServerConfig(path)
		if err != nil {
			return serverConfig{}, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(addr); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(dataDir); v != "" {
		cfg.DataDir = v
	}
	if probeTimeout > 0 {
		cfg.ProbeTimeout = probeTimeout
	}
	if v := strings.TrimSpace(logLevel); v != "" {
		cfg.LogLevel = v
	}
	if err := validateServerConfig(cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

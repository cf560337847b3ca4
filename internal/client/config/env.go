package config

import (
	"os"
	"time"
)

// parseEnv overlays Config with STREAMKEEPER_* variables. Unset or empty
// variables leave the current value untouched; a malformed timeout panics.
func parseEnv(cfg *Config) {
	envString("STREAMKEEPER_SERVER_URL", &cfg.ServerURL)
	envString("STREAMKEEPER_INGEST_ADDR", &cfg.IngestEndpointAddr)
	envString("STREAMKEEPER_INGEST_SECRET", &cfg.IngestSecret)
	envString("STREAMKEEPER_TOKEN", &cfg.Token)
	envString("STREAMKEEPER_STATE_DIR", &cfg.StateDir)

	if v := os.Getenv("STREAMKEEPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

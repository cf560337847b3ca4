package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
	"github.com/dmitrijs2005/streamkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. The timeout
// uses timex.Duration so it may be written as "5s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL          string         `json:"server_url"`
	IngestEndpointAddr string         `json:"ingest_endpoint_addr"`
	IngestSecret       string         `json:"ingest_secret"`
	StateDir           string         `json:"state_dir"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with the JSON file named by -c or -config.
// Only non-empty values are applied. Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.IngestEndpointAddr != "" {
		cfg.IngestEndpointAddr = jc.IngestEndpointAddr
	}
	if jc.IngestSecret != "" {
		cfg.IngestSecret = jc.IngestSecret
	}
	if jc.StateDir != "" {
		cfg.StateDir = jc.StateDir
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}

// Package config loads runtime configuration for the streamkeeper CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. STREAMKEEPER_* environment variables.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags.
//
// JSON schema:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "ingest_endpoint_addr": "127.0.0.1:50051",
//	  "ingest_secret": "",
//	  "state_dir": "",
//	  "request_timeout": "10s"
//	}
//
// An empty state_dir resolves to a "streamkeeper" directory under the user
// config directory.
package config

package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
)

// parseFlags populates Config from the command-line flags it owns:
//
//	-s string   server base URL
//	-a string   ingest gRPC endpoint address
//	-k string   ingest shared secret
//	-token      bearer token to use instead of the saved session
//	-d string   state directory
//	-t int      request timeout (in seconds)
//
// Other arguments (the subcommand) are filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-a", "-k", "-token", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.IngestEndpointAddr, "a", cfg.IngestEndpointAddr, "ingest gRPC endpoint address")
	fs.StringVar(&cfg.IngestSecret, "k", cfg.IngestSecret, "ingest shared secret")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "bearer token (overrides the saved session)")
	fs.StringVar(&cfg.StateDir, "d", cfg.StateDir, "state directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}

package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-g", "-d", "-s", "-t", "-k", "-rtmp", "-hls", "-hasher",
	"-origins", "-redis", "-ingest-secret", "-u", "-p", "-b", "-r", "-e", "-l", "-m",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string          HTTP bind address (e.g., ":8080")
//	-g string          gRPC bind address (e.g., ":50051")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-t int             token validity, minutes
//	-k int             stream key validity, minutes
//	-rtmp string       RTMP host for playback URLs
//	-hls string        HLS host for playback URLs
//	-hasher string     password hasher: bcrypt or argon2id
//	-origins string    comma-separated CORS origins
//	-redis string      Redis address for the ingest key cache
//	-ingest-secret     shared secret required from the ingest layer
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 recording bucket
//	-r string          S3 region
//	-e string          S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string          log level
//	-m bool            run migrations on start (use -m=false to disable)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port for ingest")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	streamKeyValidity := fs.Int("k", int(config.StreamKeyValidityDuration.Minutes()), "stream_key_validity_duration (in minutes)")

	fs.StringVar(&config.RTMPHost, "rtmp", config.RTMPHost, "RTMP host")
	fs.StringVar(&config.HLSHost, "hls", config.HLSHost, "HLS host")
	fs.StringVar(&config.PasswordHasher, "hasher", config.PasswordHasher, "password hasher")
	origins := fs.String("origins", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.IngestSecret, "ingest-secret", config.IngestSecret, "ingest shared secret")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 recording bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations on start")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.StreamKeyValidityDuration = time.Duration(*streamKeyValidity) * time.Minute
	config.AllowedOrigins = splitList(*origins)
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// loadEnvFile seeds the process environment from a dotenv file. The file
// named by -env must exist; the default ".env" is optional. Variables that
// are already set are never overridden.
func loadEnvFile() {
	path := flagx.EnvFileFlags()
	required := path != ""
	if !required {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return
		}
		panic(err)
	}
}

// parseEnv overlays Config with environment variables. Unset or empty
// variables leave the current value untouched; malformed numbers and
// durations panic, like malformed flags do.
//
// Durations accept Go syntax ("90m", "24h"). PORT is honoured as a shortcut
// for HTTP_ADDR=":<PORT>".
func parseEnv(config *Config) {
	loadEnvFile()

	if v := os.Getenv("PORT"); v != "" {
		config.EndpointAddrHTTP = ":" + v
	}
	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DB_URL", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("TOKEN_TTL", &config.TokenValidityDuration)
	envDuration("STREAM_KEY_TTL", &config.StreamKeyValidityDuration)
	envString("RTMP_HOST", &config.RTMPHost)
	envString("HLS_HOST", &config.HLSHost)
	envString("PASSWORD_HASHER", &config.PasswordHasher)
	envInt("BCRYPT_COST", &config.BcryptCost)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		config.AllowedOrigins = splitList(v)
	}
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("REDIS_PASSWORD", &config.RedisPassword)
	envString("INGEST_SECRET", &config.IngestSecret)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("S3_RECORDING_PREFIX", &config.S3RecordingPrefix)
	envDuration("RECORDING_URL_TTL", &config.RecordingURLValidity)
	envString("LOG_LEVEL", &config.LogLevel)
	envBool("MIGRATE_ON_START", &config.MigrateOnStart)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envBool(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}

func envDuration(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
	"github.com/dmitrijs2005/streamkeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "24h" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from a zero value, so a partial file
// only overrides the keys it names.
type JsonConfig struct {
	EndpointAddrHTTP          *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC          *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN               *string         `json:"database_dsn"`
	SecretKey                 *string         `json:"secret_key"`
	TokenValidityDuration     *timex.Duration `json:"token_validity_duration"`
	StreamKeyValidityDuration *timex.Duration `json:"stream_key_validity_duration"`
	RTMPHost                  *string         `json:"rtmp_host"`
	HLSHost                   *string         `json:"hls_host"`
	PasswordHasher            *string         `json:"password_hasher"`
	BcryptCost                *int            `json:"bcrypt_cost"`
	AllowedOrigins            []string        `json:"allowed_origins"`
	RedisAddr                 *string         `json:"redis_addr"`
	RedisPassword             *string         `json:"redis_password"`
	IngestSecret              *string         `json:"ingest_secret"`
	S3RootUser                *string         `json:"s3_root_user"`
	S3RootPassword            *string         `json:"s3_root_password"`
	S3Bucket                  *string         `json:"s3_bucket"`
	S3Region                  *string         `json:"s3_region"`
	S3BaseEndpoint            *string         `json:"s3_base_endpoint"`
	S3RecordingPrefix         *string         `json:"s3_recording_prefix"`
	RecordingURLValidity      *timex.Duration `json:"recording_url_validity"`
	LogLevel                  *string         `json:"log_level"`
	MigrateOnStart            *bool           `json:"migrate_on_start"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StreamKeyValidityDuration != nil {
		config.StreamKeyValidityDuration = c.StreamKeyValidityDuration.Duration
	}
	setString(&config.RTMPHost, c.RTMPHost)
	setString(&config.HLSHost, c.HLSHost)
	setString(&config.PasswordHasher, c.PasswordHasher)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.IngestSecret, c.IngestSecret)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RecordingPrefix, c.S3RecordingPrefix)
	if c.RecordingURLValidity != nil {
		config.RecordingURLValidity = c.RecordingURLValidity.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

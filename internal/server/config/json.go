package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/flagx"
	"github.com/dmitrijs2005/archivekeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	StorageBasePath  string         `json:"storage_base_path"`
	MaxTreeDepth     int            `json:"max_tree_depth"`
	MaxTreeNodes     int            `json:"max_tree_nodes"`
	AuditLogLimit    int            `json:"audit_log_limit"`
	MigrationTimeout timex.Duration `json:"migration_timeout"`
	S3ReplicaEnabled bool           `json:"s3_replica_enabled"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics: the server must not start on a
// half-applied configuration.
func parseJson(config *Config) {

	// try flags
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

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.StorageBasePath = c.StorageBasePath
	config.MaxTreeDepth = c.MaxTreeDepth
	config.MaxTreeNodes = c.MaxTreeNodes
	config.AuditLogLimit = c.AuditLogLimit
	config.MigrationTimeout = time.Duration(c.MigrationTimeout.Duration)
	config.S3ReplicaEnabled = c.S3ReplicaEnabled
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}

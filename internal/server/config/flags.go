package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-f string   base path for the local blob store
//	-x int      maximum folder tree depth
//	-n int      maximum number of nodes materialized per tree
//	-l int      default audit log page size
//	-m int      migration timeout, minutes
//	-s bool     enable S3 replica sink
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-f", "-x", "-n", "-l", "-m", "-s", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageBasePath, "f", config.StorageBasePath, "base path for the local blob store")
	fs.IntVar(&config.MaxTreeDepth, "x", config.MaxTreeDepth, "maximum folder tree depth")
	fs.IntVar(&config.MaxTreeNodes, "n", config.MaxTreeNodes, "maximum nodes materialized per tree")
	fs.IntVar(&config.AuditLogLimit, "l", config.AuditLogLimit, "default audit log page size")

	migrationTimeout := fs.Int("m", int(config.MigrationTimeout.Minutes()), "migration_timeout (in minutes)")

	fs.BoolVar(&config.S3ReplicaEnabled, "s", config.S3ReplicaEnabled, "enable S3 replica sink")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MigrationTimeout = time.Duration(*migrationTimeout) * time.Minute
}

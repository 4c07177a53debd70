// Package constants provides shared constants used throughout the netbox-connector codebase.
// This includes timeouts, defaults, and field names that must stay consistent between the
// exporter, the enrichment processor and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the per-request timeout when none is configured
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultTimeoutSeconds is DefaultHTTPTimeout expressed as configuration text
	DefaultTimeoutSeconds = "60"

	// ShutdownTimeout bounds cleanup work after a command fails
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Enrichment defaults
const (
	// DefaultMatchField is the record field looked up when none is configured
	DefaultMatchField = "name"

	// DefaultNetBoxField is the API filter field matched against
	DefaultNetBoxField = "name"

	// DefaultPrefix namespaces enrichment fields written into records
	DefaultPrefix = "netbox"

	// DefaultVerifySSL is the textual default for TLS verification
	DefaultVerifySSL = "true"
)

// Export defaults
const (
	// SourcetypePrefix prefixes the category label derived from a resource path
	SourcetypePrefix = "netbox:"
)

// Record field names used for metadata inference
const (
	FieldLastUpdated = "last_updated"
	FieldLastUpdate  = "last_update"
	FieldCreated     = "created"
	FieldName        = "name"
)

// Envelope keys of a paginated API response
const (
	EnvelopeResults = "results"
	EnvelopeNext    = "next"
)

// TruthyValues are the case-insensitive tokens accepted as "true" in textual flags
var TruthyValues = []string{"1", "true", "yes", "on"}

// Path constants
const (
	// DefaultConfigName is the base name of the config file searched in $HOME and the working dir
	DefaultConfigName = ".netbox-connector"

	// EnvPrefix is the prefix of environment variables bound into the configuration
	EnvPrefix = "NETBOX"
)

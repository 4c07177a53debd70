package app

import (
	"encoding/json"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// MetricsFile receives the prometheus text exposition on shutdown
	MetricsFile string

	// Connection settings every stanza falls back to
	Defaults inventory.Stanza

	// Stanzas are the configured export jobs, sorted by name
	Stanzas []inventory.Stanza

	// Logging configuration
	LogLevel    string // explicit --log-level
	EnvLogLevel string // LOG_LEVEL
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (NETBOX_URL, NETBOX_TOKEN, ...)
// 3. .env files
// 4. Config file (configFile, or ~/.netbox-connector.yaml, or ./.netbox-connector.yaml)
// 5. Defaults
//
// An explicit config file that cannot be read is a *errors.ConfigError; a
// missing default config file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	bindEnv(v)

	v.SetDefault("verify_ssl", constants.DefaultVerifySSL)
	v.SetDefault("timeout", constants.DefaultTimeoutSeconds)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "file", "failed to read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "file", "failed to read config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),

		ConfigFile:  v.ConfigFileUsed(),
		MetricsFile: v.GetString("metrics_file"),

		Defaults: inventory.Stanza{
			NetBoxURL: v.GetString("netbox_url"),
			Token:     v.GetString("token"),
			VerifySSL: v.GetString("verify_ssl"),
			CABundle:  v.GetString("ca_bundle"),
			Timeout:   v.GetString("timeout"),
		},

		EnvLogLevel: getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	stanzas, err := loadStanzas(v, config.Defaults)
	if err != nil {
		return nil, err
	}
	config.Stanzas = stanzas

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel, metricsFile string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if metricsFile != "" {
		c.MetricsFile = metricsFile
	}
}

// Stanza returns the configured stanza called name.
func (c *Config) Stanza(name string) (inventory.Stanza, bool) {
	for _, s := range c.Stanzas {
		if s.Name == name {
			return s, true
		}
	}
	return inventory.Stanza{}, false
}

// loadStanzas reads the jobs map. Each entry becomes a stanza named after its
// key; connection settings it leaves out come from defaults. A query may be
// written as JSON text or as a YAML mapping.
func loadStanzas(v *viper.Viper, defaults inventory.Stanza) ([]inventory.Stanza, error) {
	jobs := v.GetStringMap("jobs")
	names := slices.Sorted(maps.Keys(jobs))

	stanzas := make([]inventory.Stanza, 0, len(names))
	for _, name := range names {
		s := inventory.Stanza{Name: name}

		if sub := v.Sub("jobs." + name); sub != nil {
			query, err := queryText(sub.Get("query"))
			if err != nil {
				return nil, errors.NewConfigError("stanza "+name, "query", "failed to encode query parameters", err)
			}
			sub.Set("query", query)
			if sub.IsSet("verify_ssl") {
				// weak decoding would turn a YAML bool into "1"/"0"
				sub.Set("verify_ssl", sub.GetString("verify_ssl"))
			}
			if err := sub.Unmarshal(&s); err != nil {
				return nil, errors.NewConfigError("stanza "+name, "", "invalid stanza", err)
			}
			s.Name = name
		}

		stanzas = append(stanzas, s.WithDefaults(defaults))
	}
	return stanzas, nil
}

// queryText renders a configured query as the JSON text stanzas carry.
// Non-mapping values are encoded as-is and rejected later by validation.
func queryText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local does not override values .env already set
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// bindEnv binds the connection keys whose env names do not follow the
// NETBOX_<KEY> pattern.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("netbox_url", "NETBOX_URL", "NETBOX_NETBOX_URL")
	_ = v.BindEnv("metrics_file", "NETBOX_METRICS_FILE")
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "ARMORY"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline configuration
	Store       string
	LayoutsFile string
	Language    string
	Concurrency int
	Tables      armory.Tables

	// Watch configuration
	WatchInterval time.Duration
	WatchDebounce time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. ARMORY_* environment variables
//  3. .env.local, then .env
//  4. Config file (./.armory.yaml or ~/.armory.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration reading configFile instead of
// searching the default locations. An empty path searches.
func LoadConfigFile(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	explicit := configFile != ""
	if explicit {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read config file", err)
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Store:       v.GetString("store"),
		LayoutsFile: v.GetString("layouts"),
		Language:    v.GetString("language"),
		Concurrency: v.GetInt("concurrency"),
		Tables: armory.Tables{
			Local:         v.GetString("tables.local"),
			Authority:     v.GetString("tables.authority"),
			Rules:         v.GetString("tables.rules"),
			Roster:        v.GetString("tables.roster"),
			Settings:      v.GetString("tables.settings"),
			Hashes:        v.GetString("tables.hashes"),
			FlatReport:    v.GetString("tables.flat_report"),
			SummaryReport: v.GetString("tables.summary_report"),
		},

		WatchInterval: v.GetDuration("watch.interval"),
		WatchDebounce: v.GetDuration("watch.debounce"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		LogOutput: v.GetString("log.output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store", constants.DefaultStore)
	v.SetDefault("language", "he")
	v.SetDefault("concurrency", constants.DefaultConcurrency)
	v.SetDefault("watch.interval", constants.DefaultWatchInterval)
	v.SetDefault("watch.debounce", constants.WatchDebounce)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// UpdateFromFlags applies parsed persistent flags over file and env values.
// Empty strings keep the loaded value.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, store, lang string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if store != "" {
		c.Store = store
	}
	if lang != "" {
		c.Language = lang
	}
}

// loadEnvFiles loads .env.local before .env; godotenv never overrides a
// variable that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

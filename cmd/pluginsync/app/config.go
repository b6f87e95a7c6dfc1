package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pluginsync/pluginsync/internal/config"
)

// Config holds the application configuration loaded from flags, the
// environment, .env files and ~/.pluginsync.yaml.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Sources
	GitHubToken string
	CachePath   string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.pluginsync.yaml)
// 5. Defaults
//
// Store settings are resolved per command by internal/config.ResolveStore.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range config.Keys {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pluginsync")
	}

	// A missing config file is fine
	_ = viper.ReadInConfig()

	return &Config{
		Verbose:     viper.GetBool("verbose"),
		Quiet:       viper.GetBool("quiet"),
		NoColor:     viper.GetBool("no-color"),
		Format:      viper.GetString("format"),
		ConfigFile:  viper.ConfigFileUsed(),
		GitHubToken: config.GetString(config.KeyGitHubToken),
		CachePath:   config.GetStringDefault(config.KeyCachePath, "plugins.json"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags so that
// flags take precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env then .env.local; variables already set win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

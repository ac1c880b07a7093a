package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Level   string `mapstructure:"level"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for various commands
type DefaultsConfig struct {
	// Proxy launch defaults
	ProxyVersion string `mapstructure:"proxy_version"`
	DevToolsURL  string `mapstructure:"devtools_url"`
	StartPort    int    `mapstructure:"start_port"`
	PackageRoot  string `mapstructure:"package_root"`

	// Browser session defaults
	Browser   string `mapstructure:"browser"`
	TimeoutMs int    `mapstructure:"timeout_ms"`

	// Application launch defaults
	Cwd string `mapstructure:"cwd"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "ndjson",
		Level:   "info",
		Quiet:   false,
		Verbose: false,
		Defaults: DefaultsConfig{
			ProxyVersion: "5.0.0",
			DevToolsURL:  "http://localhost:9222",
			StartPort:    9300,
			Browser:      "chrome",
			TimeoutMs:    30000,
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("dpx")
	v.SetConfigType("yaml")

	// Add config paths (in order of precedence, lowest first)
	// 1. System-wide config
	v.AddConfigPath("/etc/dpx/")
	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "dpx"))
	}
	// 3. Home directory (as .dpx.yaml)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".dpx")
	}
	// 4. Current directory
	v.AddConfigPath(".")

	// Also check for .dpxrc file
	v.SetConfigName(".dpxrc")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	// Environment variables
	v.SetEnvPrefix("DPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("format", "DPX_FORMAT")
	v.BindEnv("level", "DPX_LEVEL")
	v.BindEnv("quiet", "DPX_QUIET")
	v.BindEnv("verbose", "DPX_VERBOSE")
	v.BindEnv("defaults.proxy_version", "DPX_PROXY_VERSION")
	v.BindEnv("defaults.devtools_url", "DPX_DEVTOOLS_URL")
	v.BindEnv("defaults.start_port", "DPX_START_PORT")

	// Set defaults
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("level", cfg.Level)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.proxy_version", cfg.Defaults.ProxyVersion)
	v.SetDefault("defaults.devtools_url", cfg.Defaults.DevToolsURL)
	v.SetDefault("defaults.start_port", cfg.Defaults.StartPort)
	v.SetDefault("defaults.browser", cfg.Defaults.Browser)
	v.SetDefault("defaults.timeout_ms", cfg.Defaults.TimeoutMs)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found; use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("dpx")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	// Try .dpxrc
	v.SetConfigName(".dpxrc")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}

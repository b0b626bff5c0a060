// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// File paths
	DatabasePath   string `mapstructure:"storagepath"`
	DatabaseName   string `mapstructure:"-"` // Derived from other settings
	GeoDBPath      string `mapstructure:"geodbpath"`
	PropertiesFile string `mapstructure:"propertiesfile"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Reporting API settings
	ReportingBaseURL        string `mapstructure:"reportingbaseurl"`
	ReportingAPIKey         string `mapstructure:"reportingapikey"`
	ReportingTimeoutSeconds int    `mapstructure:"reportingtimeoutseconds"`
	ReportingMaxRetries     int    `mapstructure:"reportingmaxretries"`

	// Session tracking settings
	SessionTimeoutSeconds int `mapstructure:"sessiontimeoutseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "pagelens")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-Country.mmdb")
		v.SetDefault("propertiesfile", "config/properties.yml")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("reportingbaseurl", "")
		v.SetDefault("reportingapikey", "")
		v.SetDefault("reportingtimeoutseconds", 30)
		v.SetDefault("reportingmaxretries", 3)
		v.SetDefault("sessiontimeoutseconds", 1800)

		v.BindEnv("appname", "PAGELENS_APP_NAME")
		v.BindEnv("appport", "PAGELENS_APP_PORT")
		v.BindEnv("environment", "PAGELENS_ENV")
		v.BindEnv("loglevel", "PAGELENS_LOG_LEVEL")
		v.BindEnv("privatekey", "PAGELENS_PRIVATE_KEY")
		v.BindEnv("storagepath", "PAGELENS_STORAGE_PATH")
		v.BindEnv("geodbpath", "PAGELENS_GEO_DB_PATH")
		v.BindEnv("propertiesfile", "PAGELENS_PROPERTIES_FILE")
		v.BindEnv("logsdir", "PAGELENS_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "PAGELENS_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "PAGELENS_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "PAGELENS_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "PAGELENS_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "PAGELENS_DB_MAX_IDLE_CONNS")
		v.BindEnv("reportingbaseurl", "PAGELENS_REPORTING_BASE_URL")
		v.BindEnv("reportingapikey", "PAGELENS_REPORTING_API_KEY")
		v.BindEnv("reportingtimeoutseconds", "PAGELENS_REPORTING_TIMEOUT_SECONDS")
		v.BindEnv("reportingmaxretries", "PAGELENS_REPORTING_MAX_RETRIES")
		v.BindEnv("sessiontimeoutseconds", "PAGELENS_SESSION_TIMEOUT_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()

		if cfg.IsProduction() && cfg.PrivateKey == "88888888888888888888888888888888" {
			log.Fatal("Production requires a unique PAGELENS_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetSessionTimeout returns the visitor session timeout in seconds.
func (c *Config) GetSessionTimeout() int {
	return c.SessionTimeoutSeconds
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// Test uses a single connection for stability; otherwise allow concurrent reads
// for parallel dashboard queries.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}
	if c.Environment == Test {
		return 1
	}
	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}
	if c.Environment == Test {
		return 1
	}
	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}

package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Site    SiteConfig    `mapstructure:"site"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	// BaseURL is the public origin used in robots.txt and sitemap.xml.
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver         string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN            string `mapstructure:"dsn"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CacheConfig holds configuration for the listing cache.
type CacheConfig struct {
	FilePath      string `mapstructure:"file_path"`
	ListingTTLSec int    `mapstructure:"listing_ttl_seconds"`
}

// SiteConfig holds page tree behaviour switches.
type SiteConfig struct {
	// PageLimit caps the number of top-level pages; 0 disables the limit.
	PageLimit           int   `mapstructure:"pages"`
	AdvancedPermissions bool  `mapstructure:"advanced_permissions"`
	LanguageID          int64 `mapstructure:"language_id"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	Lifetime        int `mapstructure:"lifetime"`         // hours
	CleanupInterval int `mapstructure:"cleanup_interval"` // minutes, 0 disables the sweep
}

// AuthConfig holds authorization configuration.
type AuthConfig struct {
	ModelPath     string `mapstructure:"model_path"`
	// TrustedHeader names the header an authenticating proxy sets to the
	// user's subject. Empty disables /auth/login.
	TrustedHeader string `mapstructure:"trusted_header"`
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("db.driver", "mysql")
	viper.SetDefault("db.dsn", "cms:cms@tcp(localhost:3306)/cms?parseTime=true")
	viper.SetDefault("db.migrations_path", "migrations")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("cache.file_path", "cms-cache.db")
	viper.SetDefault("cache.listing_ttl_seconds", 300)
	viper.SetDefault("site.pages", 0)
	viper.SetDefault("site.advanced_permissions", false)
	viper.SetDefault("site.language_id", 1)
	viper.SetDefault("session.lifetime", 24)
	viper.SetDefault("session.cleanup_interval", 5)
	viper.SetDefault("auth.model_path", "auth_model.conf")
	viper.SetDefault("auth.trusted_header", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/go-cms-app/")
	viper.AddConfigPath("$HOME/.go-cms-app")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	viper.SetEnvPrefix("CMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that have no sensible fallback.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.DB,
		validation.Field(&c.DB.Driver, validation.Required, validation.In("mysql", "sqlite3")),
		validation.Field(&c.DB.DSN, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.BaseURL, is.URL),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Session,
		validation.Field(&c.Session.Lifetime, validation.Required, validation.Min(1)),
		validation.Field(&c.Session.CleanupInterval, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Site,
		validation.Field(&c.Site.PageLimit, validation.Min(0)),
		validation.Field(&c.Site.LanguageID, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Cache,
		validation.Field(&c.Cache.FilePath, validation.Required),
		validation.Field(&c.Cache.ListingTTLSec, validation.Min(0)),
	)
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret        = "default_jwt_secret"
	defaultJWTRefreshSecret = "default_refresh_secret"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	TimeZone                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	Database                  DatabaseConfig
	CalendarSync              CalendarSyncConfig
	VisitLog                  VisitLogConfig
	SideEffectTimeout         time.Duration

	location *time.Location
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Username     string
	Password     string
	Name         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// CalendarSyncConfig controls pushing new visits to an external calendar.
type CalendarSyncConfig struct {
	Enabled bool
	URL     string
}

// VisitLogConfig points at the MongoDB ledger of scheduled visits. An empty
// URI disables the ledger.
type VisitLogConfig struct {
	MongoURI string
	Database string
}

// LoadConfig reads the configuration from the environment, falling back to
// a .env file in the working directory and then to defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:4200")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIME_ZONE", "America/Sao_Paulo")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_NAME", "pharma_crm")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_REFRESH_SECRET", defaultJWTRefreshSecret)
	v.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	v.SetDefault("CALENDAR_SYNC_ENABLED", false)
	v.SetDefault("VISIT_LOG_MONGODB_DATABASE", "pharma_crm")
	v.SetDefault("SIDE_EFFECT_TIMEOUT_SECONDS", 5)

	// The .env file is optional.
	_ = v.ReadInConfig()

	dbConfig := DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetString("DB_PORT"),
		Username:     v.GetString("DB_USERNAME"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		DSN:          v.GetString("DB_DSN"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
	if dbConfig.DSN == "" {
		dbConfig.DSN = dbConfig.buildDSN()
	}

	cfg := &Config{
		Port:                      v.GetString("PORT"),
		Origin:                    v.GetString("ORIGIN"),
		Environment:               v.GetString("APP_ENV"),
		LogLevel:                  v.GetString("LOG_LEVEL"),
		TimeZone:                  v.GetString("TIME_ZONE"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		JWTRefreshSecret:          v.GetString("JWT_REFRESH_SECRET"),
		JWTExpirationMinutes:      v.GetInt("JWT_EXPIRATION_MINUTES"),
		JWTRefreshExpirationHours: v.GetInt("JWT_REFRESH_EXPIRATION_HOURS"),
		Database:                  dbConfig,
		CalendarSync: CalendarSyncConfig{
			Enabled: v.GetBool("CALENDAR_SYNC_ENABLED"),
			URL:     v.GetString("CALENDAR_SYNC_URL"),
		},
		VisitLog: VisitLogConfig{
			MongoURI: v.GetString("VISIT_LOG_MONGODB_URI"),
			Database: v.GetString("VISIT_LOG_MONGODB_DATABASE"),
		},
		SideEffectTimeout: time.Duration(v.GetInt("SIDE_EFFECT_TIMEOUT_SECONDS")) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values and resolves the time zone.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("invalid DB_DRIVER %q: want mysql or postgres", c.Database.Driver))
	}
	if c.JWTExpirationMinutes <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINUTES must be positive"))
	}
	if c.JWTRefreshExpirationHours <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_EXPIRATION_HOURS must be positive"))
	}
	if c.IsProduction() && (c.JWTSecret == defaultJWTSecret || c.JWTRefreshSecret == defaultJWTRefreshSecret) {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set in production"))
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err))
	}
	c.location = loc
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location is the zone naive timestamps are read and rendered in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (d DatabaseConfig) buildDSN() string {
	if d.Driver == "postgres" {
		port := d.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Username, d.Password, d.Name, port)
	}
	port := d.Port
	if port == "" {
		port = "3306"
	}
	// Build DSN (Data Source Name) for MySQL connection
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, port, d.Name)
}

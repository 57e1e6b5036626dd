package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	GRPC     GRPCConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver          string        // "sqlite3" or "mysql"
	DSN             string        // sqlite file path/URI, mysql DSN or mysql:// URL
	InitSchema      bool          // create the users table if missing
	MaxOpenConns    int           // pool size upper bound
	MaxIdleConns    int           // idle connections kept in the pool
	ConnMaxLifetime time.Duration // recycle connections older than this
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address        string        // gRPC server listen address (e.g., ":50051")
	RequestTimeout time.Duration // per-RPC deadline; 0 disables
	Reflection     bool          // register the server reflection service
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level      string // debug | info | warn | error
	File       string // optional rotating log file
	MaxSize    int    // megabytes before rotation
	MaxBackups int    // rotated files kept
	MaxAge     int    // days to keep rotated files
	Compress   bool   // gzip rotated files
}

// Load reads an optional .env file, then environment variables with sensible defaults,
// and validates the result. Variables already present in the environment win over .env.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var errs []string
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverSQLite),
			DSN:             getEnv("DB_DSN", "app.db"),
			InitSchema:      boolVar("DB_INIT_SCHEMA", true),
			MaxOpenConns:    intVar("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    intVar("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durVar("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		GRPC: GRPCConfig{
			Address:        getEnv("GRPC_ADDRESS", ":50051"),
			RequestTimeout: durVar("GRPC_REQUEST_TIMEOUT", 0),
			Reflection:     boolVar("GRPC_REFLECTION", false),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSize:    intVar("LOG_MAX_SIZE", 100),
			MaxBackups: intVar("LOG_MAX_BACKUPS", 3),
			MaxAge:     intVar("LOG_MAX_AGE", 28),
			Compress:   boolVar("LOG_COMPRESS", false),
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s or %s)", c.Database.Driver, DriverSQLite, DriverMySQL)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}
	if strings.TrimSpace(c.GRPC.Address) == "" {
		return fmt.Errorf("GRPC_ADDRESS must not be empty")
	}
	if c.GRPC.RequestTimeout < 0 {
		return fmt.Errorf("GRPC_REQUEST_TIMEOUT must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL %q", c.Log.Level)
	}
	return nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	dsn := c.Database.DSN
	if c.Database.Driver == DriverMySQL {
		dsn = "*** (masked) ***"
	}
	return fmt.Sprintf("Config{DB: %s %s, gRPC: %s, Log: %s}", c.Database.Driver, dsn, c.GRPC.Address, c.Log.Level)
}

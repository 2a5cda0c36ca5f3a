package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJwtSecret = "change-me"

type Config struct {
	Port          string
	DBAdapter     string
	SQLiteFile    string
	MigrationsDir string
	JwtSecret     string
	JwtAlgorithm  string
	// AccessTokenTTL is the lifetime of tokens issued at login.
	AccessTokenTTL     time.Duration
	CORSOrigins        []string
	LoginRatePerMinute int
	LogLevel           string
	LogFormat          string
	SeedAdminEmail     string
	SeedAdminPassword  string
	Production         bool
	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q", key, v)
		}
		return d, nil
	}
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %q", key, v)
		}
		return time.Duration(s) * time.Second, nil
	}
	return def, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

// New reads configuration from the environment. A .env file in the working
// directory, when present, fills variables that are not already set.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	env := strings.ToLower(getenv("APP_ENV", getenv("ENV", "")))
	c := &Config{
		Port:              getenv("PORT", "8000"),
		DBAdapter:         getenv("DB_ADAPTER", "postgres"),
		SQLiteFile:        getenv("SQLITE_FILE", "./data/escuela.db"),
		MigrationsDir:     getenv("MIGRATIONS_DIR", "./migrations"),
		JwtSecret:         getenv("JWT_SECRET", defaultJwtSecret),
		JwtAlgorithm:      strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "text"),
		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: getenv("SEED_ADMIN_PASSWORD", "123456"),
		Production:        env == "production" || env == "prod",
		// PostgreSQL settings
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresHost:     getenv("POSTGRES_HOST", getenv("DB_HOST", "localhost")),
		PostgresPort:     getenv("POSTGRES_PORT", getenv("DB_PORT", "5432")),
		PostgresUser:     getenv("POSTGRES_USER", getenv("DB_USER", "postgres")),
		PostgresPassword: getenv("POSTGRES_PASSWORD", getenv("DB_PASSWORD", "")),
		PostgresDB:       getenv("POSTGRES_DB", getenv("DB_NAME", "escuela")),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", getenv("DB_SSLMODE", "disable")),
	}
	if _, set := os.LookupEnv("SEED_ADMIN_EMAIL"); !set {
		c.SeedAdminEmail = "admin@escuela.com"
	}

	var err error
	if c.AccessTokenTTL, err = getenvDuration("ACCESS_TOKEN_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if c.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.LoginRatePerMinute, err = getenvInt("LOGIN_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if c.LoginRatePerMinute < 0 {
		return nil, fmt.Errorf("LOGIN_RATE_PER_MINUTE must not be negative, got %d", c.LoginRatePerMinute)
	}

	switch c.JwtAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s (supported: HS256, HS384, HS512)", c.JwtAlgorithm)
	}

	switch c.DBAdapter {
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	case "sqlite":
		if c.SQLiteFile == "" {
			return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	if c.Production {
		if c.JwtSecret == "" || c.JwtSecret == defaultJwtSecret {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		if len(c.JwtSecret) < 16 {
			return nil, errors.New("JWT_SECRET must be at least 16 bytes in production")
		}
		if c.SeedAdminEmail != "" && c.SeedAdminPassword == "123456" {
			return nil, errors.New("SEED_ADMIN_PASSWORD must be changed in production")
		}
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %s", c.Port)
	}

	return c, nil
}

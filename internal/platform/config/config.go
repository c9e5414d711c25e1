package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSslMode         string
	DBConnStr         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	MigrateOnStart    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QRTokenTTL    time.Duration
	QRScanBaseURL string

	SweepInterval time.Duration
	SweepLockKey  string
	SweepLockTTL  time.Duration

	PasswordResetTTL     time.Duration
	PasswordResetBaseURL string
	PasswordMinLength    int

	CORSAllowedOrigins []string
	LoginRateLimit     int

	EventTimezone string

	LogLevel  string
	LogFormat string
	LogOutput string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		JWTKey:                 []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		JWTExp:                 time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", "postgres"),
		DBName:                 getEnv("DB_NAME", "tunis_gp"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:         getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:         getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime:      time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_MIN", 5)) * time.Minute,
		MigrateOnStart:         getEnvAsBool("MIGRATE_ON_START", true),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		QRTokenTTL:             time.Duration(getEnvAsInt("QR_TOKEN_TTL_SECONDS", 60)) * time.Second,
		QRScanBaseURL:          getEnv("QR_SCAN_BASE_URL", "http://localhost:3000/scan"),
		SweepInterval:          time.Duration(getEnvAsInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		SweepLockKey:           getEnv("SWEEP_LOCK_KEY", "tunis_gp:identification_sweep_lock"),
		SweepLockTTL:           time.Duration(getEnvAsInt("SWEEP_LOCK_TTL_SECONDS", 60)) * time.Second,
		PasswordResetTTL:       time.Duration(getEnvAsInt("PASSWORD_RESET_TTL_MINUTES", 60)) * time.Minute,
		PasswordResetBaseURL:   getEnv("PASSWORD_RESET_BASE_URL", "http://localhost:3000/reset-password"),
		PasswordMinLength:      getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		CORSAllowedOrigins:     getEnvAsCSV("CORS_ALLOWED_ORIGINS"),
		LoginRateLimit:         getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 20),
		EventTimezone:          getEnv("EVENT_TIMEZONE", "Africa/Tunis"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		LogOutput:              getEnv("LOG_OUTPUT", "stdout"),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	if len(c.JWTKey) == 0 {
		return errors.New("JWT_SECRET must be set")
	}
	if string(c.JWTKey) == defaultJWTSecret && c.APIPort != "8080" {
		return errors.New("JWT_SECRET must be changed from the default outside local development")
	}
	if c.JWTExp <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.QRTokenTTL <= 0 {
		return errors.New("QR_TOKEN_TTL_SECONDS must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL_MINUTES must be positive")
	}
	if c.PasswordResetTTL <= 0 {
		return errors.New("PASSWORD_RESET_TTL_MINUTES must be positive")
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 {
		return errors.New("invalid DB pool config")
	}
	if c.PasswordMinLength < 6 {
		return errors.New("PASSWORD_MIN_LENGTH must be >= 6")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := time.LoadLocation(c.EventTimezone); err != nil {
		return errors.New("EVENT_TIMEZONE is not a known time zone")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsCSV(key string) []string {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret       = "default-secret-change-in-production"
	defaultTokenExpiration = 24 * time.Hour
)

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenExpiration time.Duration

	LogLevel  string
	LogFormat string

	// RedisAddr пуст, если сессии хранятся в памяти процесса.
	RedisAddr     string
	RedisPassword string

	TransitionPolicy string

	// Учётная запись SYS_ADMIN, создаваемая при старте.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	CORSOrigins []string
}

// Load загружает конфигурацию из флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > значения по умолчанию.
// Файл .env в рабочем каталоге, если есть, дополняет окружение.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.DurationVar(&cfg.TokenExpiration, "t", defaultTokenExpiration, "время жизни токена")
	flag.StringVar(&cfg.LogLevel, "l", "info", "уровень логирования")
	flag.StringVar(&cfg.RedisAddr, "r", "", "адрес Redis для хранения отозванных сессий")
	flag.Parse()

	setString(&cfg.RunAddress, "RUN_ADDRESS")
	setString(&cfg.DatabaseURI, "DATABASE_URI")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.RedisAddr, "REDIS_ADDR")

	if raw := os.Getenv("TOKEN_EXPIRATION"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.TokenExpiration = d
		}
	}
	if cfg.TokenExpiration <= 0 {
		cfg.TokenExpiration = defaultTokenExpiration
	}

	// JWT секрет
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}

	cfg.LogFormat = os.Getenv("LOG_FORMAT")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.TransitionPolicy = os.Getenv("TRANSITION_POLICY")
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.AdminName = os.Getenv("ADMIN_NAME")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"), []string{"*"})

	return cfg
}

// AdminConfigured сообщает, задана ли учётная запись администратора.
func (c *Config) AdminConfigured() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

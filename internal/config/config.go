package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DBDriver    string
	DatabaseDSN string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	ClientURL   string
	LogLevel    string
	SwaggerHost string

	AuthRateLimit float64
	AuthRateBurst float64

	SMTP SMTPConfig
}

// SMTPConfig holds outgoing mail settings. An empty Host disables mail.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Load builds Config from environment with sensible defaults.
// JWT_SECRET has no default: without it the API still starts but cannot issue tokens.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "10000")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "user:password@tcp(localhost:3306)/bookreview?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)
	v.SetDefault("SMTP_PORT", 587)

	return &Config{
		ServerPort:    v.GetString("PORT"),
		DBDriver:      strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisPass:     v.GetString("REDIS_PASSWORD"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		ClientURL:     v.GetString("CLIENT_URL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		SwaggerHost:   v.GetString("SWAGGER_HOST"),
		AuthRateLimit: v.GetFloat64("AUTH_RATE_LIMIT"),
		AuthRateBurst: v.GetFloat64("AUTH_RATE_BURST"),
		SMTP: SMTPConfig{
			Host: v.GetString("SMTP_HOST"),
			Port: v.GetInt("SMTP_PORT"),
			User: v.GetString("SMTP_USER"),
			Pass: v.GetString("SMTP_PASS"),
			From: v.GetString("MAIL_FROM"),
		},
	}
}

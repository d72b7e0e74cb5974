package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/openclinic/ehr-api/internal/email"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	SMTP      email.SMTPConfig
	Upload    UploadConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	BaseURL        string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type UploadConfig struct {
	Dir string `mapstructure:"dir"`
}

// CORSConfig lists the browser origins allowed to call the API. Leaving it
// empty allows any origin, which suits local development.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("upload.dir", "./uploads")
	viper.SetDefault("rate_limit.requests_per_second", 20)
	viper.SetDefault("rate_limit.burst", 40)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

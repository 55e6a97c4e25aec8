package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Admin    AdminConfig    `mapstructure:"admin"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeoutSeconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// CalendarConfig holds the operating rules. ClosedWeekday follows
// time.Weekday numbering (0 = Sunday).
type CalendarConfig struct {
	ClosedWeekday int `mapstructure:"closed_weekday"`
	OpenHour      int `mapstructure:"open_hour"`
	CloseHour     int `mapstructure:"close_hour"`
	SlotMinutes   int `mapstructure:"slot_minutes"`
}

type AdminConfig struct {
	Email           string        `mapstructure:"email"`
	PasswordHash    string        `mapstructure:"password_hash"`
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("server.rate_limit_rps", 50)
	viper.SetDefault("server.rate_limit_burst", 100)
	viper.SetDefault("calendar.closed_weekday", 0)
	viper.SetDefault("calendar.open_hour", 9)
	viper.SetDefault("calendar.close_hour", 17)
	viper.SetDefault("calendar.slot_minutes", 60)
	viper.SetDefault("admin.verification_ttl", "10m")
	viper.SetDefault("jwt.expiry_hours", 12)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

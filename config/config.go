package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	AccessTokenSecret  string `yaml:"access_token_secret"`
	RefreshTokenSecret string `yaml:"refresh_token_secret"`
	AccessTokenTTLMin  int    `yaml:"access_token_ttl_minutes"`
	RefreshTokenTTLHrs int    `yaml:"refresh_token_ttl_hours"`
}

func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMin <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMin) * time.Minute
}

func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLHrs <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLHrs) * time.Hour
}

type BookingConfig struct {
	LockTimeoutSeconds int `yaml:"lock_timeout_seconds"`
	EventsCacheTTL     int `yaml:"events_cache_ttl_seconds"`
}

func (b BookingConfig) LockTimeout() time.Duration {
	if b.LockTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.LockTimeoutSeconds) * time.Second
}

type WorkerConfig struct {
	NotificationRetries int `yaml:"notification_retries"`
}

func (w WorkerConfig) Retries() int {
	if w.NotificationRetries <= 0 {
		return 3
	}
	return w.NotificationRetries
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

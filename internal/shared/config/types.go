package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects between mysql (production) and sqlite (local runs).
// For sqlite, Database is the file path.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// OracleConfig configures the chain explorers used to confirm incoming payments.
type OracleConfig struct {
	TimeoutSeconds int                  `mapstructure:"timeout_seconds"`
	MaxRetries     int                  `mapstructure:"max_retries"`
	Polygon        PolygonOracleConfig  `mapstructure:"polygon"`
	Litecoin       LitecoinOracleConfig `mapstructure:"litecoin"`
}

func (o *OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

type PolygonOracleConfig struct {
	APIURL                string `mapstructure:"api_url"`
	APIKey                string `mapstructure:"api_key"`
	USDTContract          string `mapstructure:"usdt_contract"`
	USDCContract          string `mapstructure:"usdc_contract"`
	RequiredConfirmations int    `mapstructure:"required_confirmations"`
}

type LitecoinOracleConfig struct {
	APIURL                string `mapstructure:"api_url"`
	Token                 string `mapstructure:"token"`
	RequiredConfirmations int    `mapstructure:"required_confirmations"`
}

type SchedulerConfig struct {
	SweepIntervalSeconds      int `mapstructure:"sweep_interval_seconds"`
	RecurrenceIntervalSeconds int `mapstructure:"recurrence_interval_seconds"`
}

func (s *SchedulerConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

func (s *SchedulerConfig) RecurrenceInterval() time.Duration {
	return time.Duration(s.RecurrenceIntervalSeconds) * time.Second
}

// VerifierConfig bounds the work performed by one sweep.
type VerifierConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	BatchSize   int `mapstructure:"batch_size"`
}

type DirectoryConfig struct {
	CacheSize       int `mapstructure:"cache_size"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

func (d *DirectoryConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

// RateLimitConfig caps the manual check-payment endpoint. It is enforced only when Redis is enabled.
type RateLimitConfig struct {
	CheckPaymentPerMinute int `mapstructure:"check_payment_per_minute"`
}

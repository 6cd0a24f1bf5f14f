package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/cryptbill/cryptbill/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Kafka     sharedConfig.KafkaConfig     `mapstructure:"kafka"`
	Oracle    sharedConfig.OracleConfig    `mapstructure:"oracle"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	Verifier  sharedConfig.VerifierConfig  `mapstructure:"verifier"`
	Directory sharedConfig.DirectoryConfig `mapstructure:"directory"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (when present) and CRYPTBILL_* environment
// variables. configFile overrides the search path when non-empty.
func Load(env, configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("CRYPTBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "cryptbill_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Kafka defaults (publishing is disabled without brokers)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "cryptbill.invoices")

	// Oracle defaults
	v.SetDefault("oracle.timeout_seconds", 15)
	v.SetDefault("oracle.max_retries", 3)
	v.SetDefault("oracle.polygon.api_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("oracle.polygon.usdt_contract", "0xc2132D05D31c914a87C6611C10748AEb04B58e8F")
	v.SetDefault("oracle.polygon.usdc_contract", "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359")
	v.SetDefault("oracle.polygon.required_confirmations", 12)
	v.SetDefault("oracle.litecoin.api_url", "https://api.blockcypher.com/v1/ltc/main")
	v.SetDefault("oracle.litecoin.required_confirmations", 3)

	// Scheduler defaults
	v.SetDefault("scheduler.sweep_interval_seconds", 120)
	v.SetDefault("scheduler.recurrence_interval_seconds", 3600)

	// Verifier defaults
	v.SetDefault("verifier.concurrency", 4)
	v.SetDefault("verifier.batch_size", 500)

	// Directory cache defaults
	v.SetDefault("directory.cache_size", 1024)
	v.SetDefault("directory.cache_ttl_seconds", 60)

	// Rate limit defaults
	v.SetDefault("ratelimit.check_payment_per_minute", 30)
}

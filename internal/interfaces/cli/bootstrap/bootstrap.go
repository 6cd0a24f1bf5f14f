// Package bootstrap prepares the process-wide config, logger, timezone and
// database shared by every command.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/infrastructure/config"
	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	"github.com/cryptbill/cryptbill/internal/shared/biztime"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// Options are the flags every command accepts.
type Options struct {
	Env        string
	ConfigPath string
}

// AddFlags registers --env and --config as persistent flags of cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// Environment returns the ENV variable when set, otherwise the --env flag.
func (o *Options) Environment() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return o.Env
}

// Init loads config and installs the logger and business timezone. It does
// not touch the database.
func Init(o *Options) (*config.Config, logger.Interface, error) {
	env := o.Environment()

	cfg, err := config.Load(env, o.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize business timezone for recurrence date calculations
	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// InitWithDatabase is Init followed by database.Init. Callers close the
// database with database.Close.
func InitWithDatabase(o *Options) (*config.Config, logger.Interface, error) {
	cfg, log, err := Init(o)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, log, nil
}

func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return "release"
	case "development", "dev":
		return "debug"
	case "test", "testing":
		return "test"
	case "debug":
		return "debug"
	case "release":
		return "release"
	default:
		return "debug"
	}
}

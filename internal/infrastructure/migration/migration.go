package migration

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// Manager handles database migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks the strategy by name: "auto" uses GORM AutoMigrate,
// anything else the versioned goose scripts.
func NewManager(strategyName string) *Manager {
	var strategy Strategy

	switch strings.ToLower(strategyName) {
	case "auto", "gorm_auto_migrate":
		strategy = NewGormAutoMigrateStrategy()
	default:
		strategy = NewGooseStrategy()
	}

	return NewManagerWithStrategy(strategy)
}

// NewManagerWithStrategy creates a new migration manager with a specific strategy
func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migration.manager"),
	}
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(db *gorm.DB, models ...interface{}) error {
	m.logger.Infow("starting database migration",
		"strategy", m.strategy.GetName(),
		"models_count", len(models))

	if err := m.strategy.Migrate(db, models...); err != nil {
		m.logger.Errorw("migration failed",
			"strategy", m.strategy.GetName(),
			"error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully",
		"strategy", m.strategy.GetName())

	return nil
}

// GetStrategy returns the current migration strategy
func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}

// MigrateDown rolls back steps versions. Only versioned strategies support it.
func (m *Manager) MigrateDown(db *gorm.DB, steps int) error {
	gs, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return fmt.Errorf("strategy %s does not support down migrations", m.strategy.GetName())
	}
	return gs.MigrateDown(db, steps)
}

// Status prints the applied and pending versions.
func (m *Manager) Status(db *gorm.DB) error {
	gs, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return fmt.Errorf("strategy %s does not track versions", m.strategy.GetName())
	}
	return gs.Status(db)
}

// Version returns the applied schema version.
func (m *Manager) Version(db *gorm.DB) (int64, error) {
	gs, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return 0, fmt.Errorf("strategy %s does not track versions", m.strategy.GetName())
	}
	return gs.GetVersion(db)
}

package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/adapters/ledger"
	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/core"
)

// LedgerFactory creates ledger stores based on configuration
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLedgerStore creates a ledger store based on the configuration
func (f *LedgerFactory) CreateLedgerStore(ctx context.Context) (core.LedgerStore, error) {
	lc := f.cfg.GetLedger()

	switch lc.Type {
	case "file":
		return ledger.NewFileLedger(lc.Path, f.logger), nil
	case "memory":
		return ledger.NewMemoryLedger(), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(lc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return ledger.NewSQLiteLedger(lc.SQLitePath, f.logger)
	case "mysql":
		return ledger.NewMySQLLedger(lc.MySQLDSN, f.logger)
	case "postgres":
		return ledger.NewPostgresLedger(ctx, lc.PostgresDSN, f.logger)
	case "redis":
		return ledger.NewRedisLedger(ctx, ledger.RedisOptions{
			Addr:      lc.Redis.Addr,
			Password:  lc.Redis.Password,
			DB:        lc.Redis.DB,
			KeyPrefix: lc.Redis.KeyPrefix,
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", lc.Type)
	}
}

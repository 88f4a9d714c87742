package commands

import (
	"context"
	"time"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/config"
	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/sqlstore"
)

// Catalog is the part of *sqlstore.Catalog used by the sync commands.
type Catalog interface {
	Push(ctx context.Context, store calibration.CalibrationStore) (string, error)
	Pull(ctx context.Context, opts ...calibration.Option) (*calibration.Calibrations, error)
	Snapshots(ctx context.Context) ([]sqlstore.Snapshot, error)
	Close() error
}

var _ Catalog = &sqlstore.Catalog{}

// ConfigLoaderFunc loads the tool configuration from a file path.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// CalibrationsLoaderFunc loads a saved calibration document.
type CalibrationsLoaderFunc func(path string, lggr logger.Logger) (*calibration.Calibrations, error)

// CatalogOpenerFunc connects to the SQL catalog.
type CatalogOpenerFunc func(ctx context.Context, cfg config.CatalogConfig, lggr logger.Logger) (Catalog, error)

// defaultCalibrationsLoader is the production implementation that reads a file from disk.
func defaultCalibrationsLoader(path string, lggr logger.Logger) (*calibration.Calibrations, error) {
	return calibration.Load(path, calibration.WithLogger(lggr))
}

// defaultCatalogOpener is the production implementation that opens a sqlstore catalog.
func defaultCatalogOpener(ctx context.Context, cfg config.CatalogConfig, lggr logger.Logger) (Catalog, error) {
	opts := []sqlstore.Option{
		sqlstore.WithLogger(lggr),
		sqlstore.WithConnectAttempts(cfg.ConnectAttempts, 500*time.Millisecond),
	}
	if cfg.CreateSchema {
		opts = append(opts, sqlstore.WithCreateSchema())
	}

	return sqlstore.Open(ctx, cfg.Driver, cfg.DSN, opts...)
}

// Deps holds the injectable dependencies of the calctl commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the tool configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// CalibrationsLoader loads calibration documents.
	// Default: calibration.Load
	CalibrationsLoader CalibrationsLoaderFunc

	// CatalogOpener connects to the SQL catalog.
	// Default: sqlstore.Open
	CatalogOpener CatalogOpenerFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.CalibrationsLoader == nil {
		d.CalibrationsLoader = defaultCalibrationsLoader
	}
	if d.CatalogOpener == nil {
		d.CatalogOpener = defaultCatalogOpener
	}
}

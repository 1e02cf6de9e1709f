package backend

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"launchrates/internal/dataset"
	gsheet "launchrates/internal/sheets/google"
	"launchrates/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.Info("Using CSV dataset", "path", config.DatasetPath)
		return &BackendResult{Source: dataset.CSVSource{Path: config.DatasetPath}}, nil
	case XLSXBackend:
		f.logger.Info("Using XLSX dataset", "path", config.DatasetPath, "sheet", config.DatasetSheet)
		return &BackendResult{Source: dataset.XLSXSource{Path: config.DatasetPath, Sheet: config.DatasetSheet}}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createSQLiteBackend opens the database and seeds it from the dataset file
// on first run. Without a seed file an empty table is an error at load time.
func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewLaunchRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.DatasetPath != "" {
		seed := fileSource(config.DatasetPath, config.DatasetSheet)
		if _, err := repo.SeedIfEmpty(ctx, seed.Load); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to seed SQLite repository: %w", err)
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.DatasetSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Source: cli}, nil
}

// fileSource picks the loader by file extension.
func fileSource(path, sheet string) dataset.Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return dataset.XLSXSource{Path: path, Sheet: sheet}
	default:
		return dataset.CSVSource{Path: path}
	}
}

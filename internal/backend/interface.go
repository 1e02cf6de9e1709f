// Package backend builds the dataset source selected by configuration.
package backend

import (
	"context"

	"launchrates/internal/dataset"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether a backend's connection is still usable.
type PingFunc func(ctx context.Context) error

// BackendResult contains the source and its optional lifecycle hooks.
// Cleanup and Ping are nil for file backends.
type BackendResult struct {
	Source  dataset.Source
	Cleanup CleanupFunc
	Ping    PingFunc
}

// Close runs Cleanup if present.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backends, also the seed file for sqlite
	DatasetPath  string
	DatasetSheet string

	SQLiteDBPath string

	GoogleSpreadsheetID string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	XLSXBackend   BackendType = "xlsx"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, XLSXBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

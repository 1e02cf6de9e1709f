package dataset

import (
	"context"
	"errors"
	"fmt"

	"launchrates/internal/analytics"
	"launchrates/internal/core"
	applog "launchrates/internal/log"
)

// ErrEmptyDataset is returned when a source yields no usable record.
var ErrEmptyDataset = errors.New("dataset has no records")

// Source produces the launch records once at startup.
type Source interface {
	Load(ctx context.Context) ([]core.LaunchRecord, error)
}

// Store is the in-memory launch table. It is built once and never modified,
// so it is safe for concurrent use without locking.
type Store struct {
	records []core.LaunchRecord
	sites   []string
	max     float64
}

// NewStore copies records into a new store.
func NewStore(records []core.LaunchRecord) (*Store, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	owned := make([]core.LaunchRecord, len(records))
	copy(owned, records)

	s := &Store{
		records: owned,
		sites:   analytics.DistinctSites(owned),
	}
	for _, r := range owned {
		if r.PayloadMassKg > s.max {
			s.max = r.PayloadMassKg
		}
	}
	return s, nil
}

// Open loads every record from src and builds a store.
func Open(ctx context.Context, src Source) (*Store, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	store, err := NewStore(records)
	if err != nil {
		return nil, err
	}
	applog.FromContext(ctx).InfoContext(ctx, "Dataset loaded",
		"records", store.Len(),
		"sites", len(store.sites),
		"max_payload_kg", store.max)
	return store, nil
}

// Records returns the shared record slice. Callers must not modify it.
func (s *Store) Records() []core.LaunchRecord { return s.records }

// Sites returns the distinct launch sites in order of first appearance.
func (s *Store) Sites() []string {
	return append([]string(nil), s.sites...)
}

// MaxPayload is the largest payload mass in the dataset.
func (s *Store) MaxPayload() float64 { return s.max }

// Len is the number of records.
func (s *Store) Len() int { return len(s.records) }

// Domain is the payload slider domain, with the upper bound rounded up to step.
func (s *Store) Domain(step float64) core.PayloadRange {
	return analytics.PayloadDomain(s.records, step)
}

// logSkipped reports rows a loader had to drop.
func logSkipped(ctx context.Context, origin string, skipped []error) {
	logger := applog.FromContext(ctx)
	for _, err := range skipped {
		logger.WarnContext(ctx, "Skipping unparsable dataset row", "source", origin, applog.FieldError, err)
	}
}

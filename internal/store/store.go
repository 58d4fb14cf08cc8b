package store

import (
	"context"
	"time"
)

// RecordKind is the operation a history record captures.
type RecordKind string

const (
	RecordQuery    RecordKind = "query"
	RecordCheckout RecordKind = "checkout"
	RecordBuilds   RecordKind = "builds"
)

// Record is one logged gerritci operation.
type Record struct {
	ID        string
	Kind      RecordKind
	Project   string
	Change    string
	Patchset  string
	Detail    string
	CreatedAt time.Time
}

// RecordFilter narrows ListRecords.
type RecordFilter struct {
	Kind   RecordKind
	Change string
	Limit  int
}

// Store defines the persistence interface for operation history.
type Store interface {
	AddRecord(ctx context.Context, r *Record) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

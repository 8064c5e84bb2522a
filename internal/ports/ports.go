package ports

import (
	"context"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore persists raw transaction records per user. Missing ids
	// report core.ErrNotFound; inserting a taken id reports
	// core.ErrDuplicateID.
	RecordStore interface {
		InsertRecord(ctx context.Context, r core.Record) error
		UpdateRecord(ctx context.Context, r core.Record) error
		DeleteRecord(ctx context.Context, userID, id string) error
		GetRecord(ctx context.Context, userID, id string) (core.Record, error)
		// ListRecords returns a user's records newest first.
		ListRecords(ctx context.Context, userID string) ([]core.Record, error)
		ListUsers(ctx context.Context) ([]string, error)
	}

	// ReportWriter publishes a user's rollup to an external sink.
	ReportWriter interface {
		WriteReport(ctx context.Context, userID string, r aggregate.Report) error
	}

	ChangePublisher interface {
		PublishChange(ctx context.Context, ev core.ChangeEvent) error
	}
)

// Package store defines the audit journal of tool invocations.
// The journal is write-only from the dispatcher's point of view: nothing
// read back from it influences how a later call is handled.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one finished tool invocation.
type Record struct {
	RequestID string
	Tool      string
	// Arguments holds the call arguments as JSON ("{}" when none were sent).
	Arguments json.RawMessage
	IsError   bool
	// Result is the text of the envelope returned to the client.
	Result    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Journal appends invocation records.
type Journal interface {
	Append(ctx context.Context, r Record) error
}

// Reader lists recorded invocations, newest first.
type Reader interface {
	List(ctx context.Context, limit int) ([]Record, error)
}

// Store aggregates journal reads and writes.
type Store interface {
	Journal
	Reader
	Migrate(ctx context.Context) error
	Close() error
}

package endpoint

import (
	"sync/atomic"

	"gihan9a/draftsync/pkg/chunk"
)

// Stats counts endpoint activity across all connections
type Stats struct {
	activeConnections atomic.Int64
	connections       atomic.Int64
	messages          atomic.Int64
	syncs             atomic.Int64
	storeFailures     atomic.Int64
	rejectedMessages  atomic.Int64
	unchanged         atomic.Int64
	copied            atomic.Int64
	literal           atomic.Int64
	invalid           atomic.Int64
	clamped           atomic.Int64
	externalEdits     atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	ActiveConnections int64 `json:"active_connections"`
	Connections       int64 `json:"connections"`
	Messages          int64 `json:"messages"`
	Syncs             int64 `json:"syncs"`
	StoreFailures     int64 `json:"store_failures"`
	RejectedMessages  int64 `json:"rejected_messages"`
	UnchangedEntries  int64 `json:"unchanged_entries"`
	CopiedEntries     int64 `json:"copied_entries"`
	LiteralEntries    int64 `json:"literal_entries"`
	InvalidEntries    int64 `json:"invalid_entries"`
	ClampedSlices     int64 `json:"clamped_slices"`
	ExternalEdits     int64 `json:"external_edits"`
}

func (s *Stats) addReport(r chunk.Report) {
	s.unchanged.Add(int64(r.Unchanged))
	s.copied.Add(int64(r.Copied))
	s.literal.Add(int64(r.Literal))
	s.invalid.Add(int64(r.Invalid))
	s.clamped.Add(int64(r.Clamped))
}

// RecordExternalEdit counts a draft change that did not come through a sync connection
func (s *Stats) RecordExternalEdit() {
	s.externalEdits.Add(1)
}

// Snapshot copies the counters
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ActiveConnections: s.activeConnections.Load(),
		Connections:       s.connections.Load(),
		Messages:          s.messages.Load(),
		Syncs:             s.syncs.Load(),
		StoreFailures:     s.storeFailures.Load(),
		RejectedMessages:  s.rejectedMessages.Load(),
		UnchangedEntries:  s.unchanged.Load(),
		CopiedEntries:     s.copied.Load(),
		LiteralEntries:    s.literal.Load(),
		InvalidEntries:    s.invalid.Load(),
		ClampedSlices:     s.clamped.Load(),
		ExternalEdits:     s.externalEdits.Load(),
	}
}

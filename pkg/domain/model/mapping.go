package model

import (
	"time"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// MappingEntry is one association in a mapping domain. Keys are unique
// per domain; conflicting writes resolve last-write-wins by UpdatedAt.
type MappingEntry struct {
	Key       string
	Value     string
	Source    types.MappingSource
	UpdatedAt time.Time
}

// Supersedes reports whether this entry should replace an existing one
// under live-write (Put) semantics: ties go to the incoming write.
func (e *MappingEntry) Supersedes(existing *MappingEntry) bool {
	return !e.UpdatedAt.Before(existing.UpdatedAt)
}

// SupersedesOnSync reports whether this entry should replace an
// existing one during reconciliation: a synced entry never downgrades
// an existing entry's freshness unless it is strictly newer.
func (e *MappingEntry) SupersedesOnSync(existing *MappingEntry) bool {
	return e.UpdatedAt.After(existing.UpdatedAt)
}

// SyncReport summarizes one bulk reconciliation pass.
type SyncReport struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Merge accumulates another report into this one.
func (r *SyncReport) Merge(other *SyncReport) {
	if other == nil {
		return
	}
	r.Created += other.Created
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
}

// Total returns the number of entries the report covers.
func (r *SyncReport) Total() int {
	return r.Created + r.Updated + r.Unchanged
}

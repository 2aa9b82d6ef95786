package types

import "github.com/m-mizutani/goerr/v2"

// MappingSource records how a mapping entry was established.
type MappingSource string

const (
	// SourceSynced means the entry came from bulk reconciliation
	// against the portal's own records.
	SourceSynced MappingSource = "synced"

	// SourceLearned means the entry was observed incrementally in
	// live webhook traffic.
	SourceLearned MappingSource = "learned"
)

// Validate checks if the mapping source is valid.
func (s MappingSource) Validate() error {
	switch s {
	case SourceSynced, SourceLearned:
		return nil
	default:
		return goerr.New("invalid mapping source", goerr.V("source", string(s)))
	}
}

func (s MappingSource) String() string { return string(s) }

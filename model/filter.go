package model

import "time"

// SearchFilter narrows both index predicates to a subset of entries.
// All fields are optional and combine with AND.
type SearchFilter struct {
	BlockTypes    []string          `json:"block_types,omitempty"`    // Matches metadata->>'block_type'
	CreatedAfter  *time.Time        `json:"created_after,omitempty"`  // Inclusive lower bound on created_at
	CreatedBefore *time.Time        `json:"created_before,omitempty"` // Exclusive upper bound on created_at
	Properties    map[string]string `json:"properties,omitempty"`     // Metadata equality matches
}

// IsZero reports whether the filter restricts nothing.
func (f *SearchFilter) IsZero() bool {
	return f == nil || (len(f.BlockTypes) == 0 && f.CreatedAfter == nil && f.CreatedBefore == nil && len(f.Properties) == 0)
}

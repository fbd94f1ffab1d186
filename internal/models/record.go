// Package models defines the record shapes handed between pipeline stages.
package models

// RawRecord is a flat key-value object decoded from the embedded JSON
// fragment. Keys are the source page's short codes; a RawRecord exists only
// between extraction and normalization.
type RawRecord map[string]any

// Record is a normalized row keyed by canonical column names. Every field is
// present and non-empty; rows that cannot satisfy that are dropped, not
// repaired.
type Record map[string]string

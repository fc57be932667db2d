package domain

import (
	"fmt"
	"time"
)

// ContainerKind classifies the top-level artifact a fragment belongs to.
type ContainerKind string

// Known container kinds.
const (
	ContainerAPI        ContainerKind = "api"
	ContainerSequence   ContainerKind = "sequence"
	ContainerProxy      ContainerKind = "proxy"
	ContainerEndpoint   ContainerKind = "endpoint"
	ContainerLocalEntry ContainerKind = "localEntry"
	ContainerUnknown    ContainerKind = "unknown"
)

// ParseContainerKind maps a tag name to a ContainerKind.
// Unrecognised tags map to ContainerUnknown.
func ParseContainerKind(tag string) ContainerKind {
	switch ContainerKind(tag) {
	case ContainerAPI, ContainerSequence, ContainerProxy, ContainerEndpoint, ContainerLocalEntry:
		return ContainerKind(tag)
	default:
		return ContainerUnknown
	}
}

// String returns the string representation.
func (k ContainerKind) String() string {
	return string(k)
}

// FragmentLevel is the structural level of a fragment in its document tree.
type FragmentLevel string

// Fragment levels, outermost first.
const (
	LevelContainer FragmentLevel = "container"
	LevelFlow      FragmentLevel = "flow"
	LevelLeaf      FragmentLevel = "leaf"
)

// IsValid returns true if the level is recognised.
func (l FragmentLevel) IsValid() bool {
	switch l {
	case LevelContainer, LevelFlow, LevelLeaf:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (l FragmentLevel) String() string {
	return string(l)
}

// Span is an inclusive, 1-based line range in a source document.
// A single-line element has Start == End.
type Span struct {
	Start int
	End   int
}

// IsValid reports whether the span is well formed.
func (s Span) IsValid() bool {
	return s.Start >= 1 && s.End >= s.Start
}

// Contains reports whether other lies within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// String formats the span as "start-end".
func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// TransientFragment is produced by one chunking pass over one document.
// It is never persisted directly; it is the input to reconciliation.
type TransientFragment struct {
	// LocalIndex is the position in this pass. Not stable across edits.
	LocalIndex int

	// ContainerName is the name of the nearest enclosing container.
	ContainerName string

	// ContainerKind classifies the nearest enclosing container.
	ContainerKind ContainerKind

	// Level is container, flow or leaf.
	Level FragmentLevel

	// Kind is the element type (tag name without namespace prefix).
	Kind string

	// Name is the resolved human-readable name of the element.
	Name string

	// Span is the element's line range.
	Span Span

	// EmbeddingText is the bounded summary that gets embedded.
	EmbeddingText string

	// ParentLocalIndex refers to another fragment of the same pass.
	// Nil for top-level fragments.
	ParentLocalIndex *int
}

// Fragment is a persisted, embedded chunk of a document.
type Fragment struct {
	// ID is assigned by the store on first insert and never changes.
	ID int64

	// DocumentPath is the owning document.
	DocumentPath string

	// DocumentFingerprint is the fingerprint of the revision that last
	// wrote this row.
	DocumentFingerprint string

	// ContainerName is the name of the nearest enclosing container.
	ContainerName string

	// ContainerKind classifies the nearest enclosing container.
	ContainerKind ContainerKind

	// Level is container, flow or leaf.
	Level FragmentLevel

	// Kind is the element type.
	Kind string

	// Name is the resolved element name.
	Name string

	// LocalIndex is the index from the pass that last wrote this row.
	LocalIndex int

	// Span is the element's line range. Unique per document.
	Span Span

	// ParentID is the store identity of the structural parent.
	ParentID *int64

	// EmbeddingText is the text the vector was computed from.
	EmbeddingText string

	// Embedding is the vector for EmbeddingText.
	Embedding []float32

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time
}

// IsRoot reports whether the fragment has no parent.
func (f *Fragment) IsRoot() bool {
	return f.ParentID == nil
}

// FragmentFromTransient builds an unsaved Fragment from chunker output.
// ID, ParentID, Embedding and UpdatedAt are left for the caller.
func FragmentFromTransient(path, fingerprint string, t TransientFragment) Fragment {
	return Fragment{
		DocumentPath:        path,
		DocumentFingerprint: fingerprint,
		ContainerName:       t.ContainerName,
		ContainerKind:       t.ContainerKind,
		Level:               t.Level,
		Kind:                t.Kind,
		Name:                t.Name,
		LocalIndex:          t.LocalIndex,
		Span:                t.Span,
		EmbeddingText:       t.EmbeddingText,
	}
}

// SameParent reports whether two optional parent identities are equal.
func SameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ScoredFragment pairs a fragment with its similarity to a query.
type ScoredFragment struct {
	Fragment Fragment
	Score    float64
}

// StoreStats summarises store contents.
type StoreStats struct {
	Documents int
	Fragments int
}

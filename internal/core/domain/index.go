package domain

import "time"

// IndexState is the lifecycle state of the vector index.
type IndexState string

// Index states. Transitions: unset -> building -> ready, ready -> building on reload.
const (
	// IndexStateUnset means no index exists; queries run without context.
	IndexStateUnset IndexState = "unset"

	// IndexStateBuilding means the first index is being built.
	IndexStateBuilding IndexState = "building"

	// IndexStateReady means an index is available for retrieval.
	IndexStateReady IndexState = "ready"
)

// String returns the string representation.
func (s IndexState) String() string {
	return string(s)
}

// IndexMetadata describes how a persisted index was produced.
type IndexMetadata struct {
	// Model is the embedding model the vectors came from.
	Model string

	// Dimensions is the length of every vector in the index.
	Dimensions int

	// BuiltAt is when the index was built.
	BuiltAt time.Time
}

// IndexSnapshot is the unit persisted to and loaded from an index store.
type IndexSnapshot struct {
	Metadata IndexMetadata
	Entries  []IndexEntry
}

// IndexStatus reports the current state of the index.
type IndexStatus struct {
	State      IndexState `json:"state"`
	Entries    int        `json:"entries"`
	Dimensions int        `json:"dimensions"`
	Model      string     `json:"model,omitempty"`
	BuiltAt    time.Time  `json:"built_at,omitempty"`

	// Rebuilding is true while a reload runs alongside a ready index.
	Rebuilding bool `json:"rebuilding"`

	// LastError is the message of the most recent failed build, if any.
	LastError string `json:"last_error,omitempty"`
}

// Ready reports whether the index can serve retrieval.
func (s IndexStatus) Ready() bool {
	return s.State == IndexStateReady
}

// BuildReport summarises an index build.
type BuildReport struct {
	Documents  int
	Chunks     int
	LoadErrors []*LoadError

	// Loaded is true when the index came from the persisted store rather than a rebuild.
	Loaded bool
}

// CheckResult is the outcome of one diagnostic check.
type CheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

package history

// Entry represents a persisted selection: which tweaks a user exported (or
// explicitly saved), in order, under an optional label. userId and createdAt
// are immutable after creation; corrections are delete-and-recreate, never
// in-place mutation.
type Entry struct {
	// ID is a ULID assigned at creation
	ID string `json:"id"`

	// UserID is the opaque owner identifier supplied by the identity layer
	UserID string `json:"user_id"`

	// Name is an optional user-chosen label for the selection (nullable)
	Name *string `json:"name,omitempty"`

	// TweakIDs is the exact ordered sequence of tweak identifiers selected
	TweakIDs []string `json:"tweak_ids"`

	// IsFavorite marks a selection the user pinned
	IsFavorite bool `json:"is_favorite"`

	// CreatedAt is the Unix timestamp when the entry was created
	CreatedAt int64 `json:"created_at"`
}

// CorruptEntry reports a history record whose stored selection failed to
// deserialize. Fetches return these alongside the valid entries so one bad
// row never hides the rest.
type CorruptEntry struct {
	// ID is the raw record id as stored
	ID string `json:"id"`

	// Cause describes the decode failure
	Cause string `json:"cause"`
}

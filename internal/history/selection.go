package history

import (
	"encoding/json"
	"fmt"
)

// SelectionSchemaVersion is the current stored-selection schema version.
// Bump when the selection shape changes; DecodeSelection rejects versions it
// does not know rather than guessing.
const SelectionSchemaVersion = 1

// Selection is the versioned wire form of a stored selection. The ordered id
// list must round-trip exactly: decode(encode(ids)) == ids.
type Selection struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// EncodeSelection serializes an ordered id list for storage.
func EncodeSelection(tweakIDs []string) (string, error) {
	if tweakIDs == nil {
		tweakIDs = []string{}
	}
	data, err := json.Marshal(Selection{
		Version: SelectionSchemaVersion,
		IDs:     tweakIDs,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSelection parses a stored selection back into its ordered id list.
// Failures are structural, not stringly-typed: a malformed document, an
// unknown version, or a missing id list each produce a distinct error.
func DecodeSelection(raw string) ([]string, error) {
	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("malformed selection: %w", err)
	}
	if sel.Version != SelectionSchemaVersion {
		return nil, fmt.Errorf("unknown selection schema version %d", sel.Version)
	}
	if sel.IDs == nil {
		return nil, fmt.Errorf("selection has no id list")
	}
	return sel.IDs, nil
}

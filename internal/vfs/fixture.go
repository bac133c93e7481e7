package vfs

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFixture reads a YAML fixture conforming to the snapshot shape
// and builds the initial filesystem from it. The document is run
// through the snapshot schema first so a malformed fixture fails
// closed instead of producing a half-built tree.
func LoadFixture(path string) (*FS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vfs: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture builds a filesystem from YAML fixture bytes.
func ParseFixture(data []byte) (*FS, error) {
	var snap SnapshotNode
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("vfs: parse fixture: %w", err)
	}
	// Validate through the same schema as JSON snapshots.
	jsonDoc, err := json.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("vfs: fixture to JSON: %w", err)
	}
	if err := ValidateSnapshot(jsonDoc); err != nil {
		return nil, err
	}
	return FromSnapshot(&snap)
}

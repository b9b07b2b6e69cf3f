package extension

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// StateFile is the filename holding persisted enable/disable overrides,
// kept in the config directory next to config.toml.
const StateFile = "plugins.state.toml"

// stateDoc is the on-disk shape of the override file.
type stateDoc struct {
	Overrides map[string]bool `toml:"overrides"`
}

// loadOverrides reads persisted toggles. A missing file means no
// overrides; a malformed one is an error so toggles are not silently
// dropped.
func loadOverrides(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("extension state: %w", err)
	}
	var doc stateDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("extension state %s: %w", path, err)
	}
	if doc.Overrides == nil {
		doc.Overrides = map[string]bool{}
	}
	return doc.Overrides, nil
}

// saveOverrides rewrites the override file.
func saveOverrides(path string, overrides map[string]bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(stateDoc{Overrides: overrides})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

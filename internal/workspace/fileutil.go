package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic stages data in a temp file next to the target and renames it
// into place, so a run log or staged patch is never observed half-written.
// Parent directories are created as needed.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "patchgate-*")
	if err != nil {
		return fmt.Errorf("stage temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename lands

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}

// WriteJSON persists v as indented JSON, atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteAtomic(path, append(data, '\n'))
}

// ReadJSON loads the JSON file at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

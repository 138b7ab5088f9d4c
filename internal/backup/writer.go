package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeJSON persists v as indented JSON with stable key order (Go sorts map
// keys when marshalling). The document is written to a temporary file in the
// target directory and renamed into place, so a crash mid-write never leaves
// a truncated file under the final name.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ghvault-*")
	if err != nil {
		return fmt.Errorf("backup: create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: rename into %s: %w", path, err)
	}
	return nil
}

// ensureDir creates a directory if needed. Creating an already-existing
// directory is not an error.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomicJSON marshals v and writes it to path via a temp-file-then-
// rename, so a reader never observes a partially written artifact and a
// crash mid-write never corrupts an existing one. Grounded on spec.md
// §4.7/§4.8's checkpoint contract and §9's "resume-by-file-presence"
// design note.
func WriteAtomicJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("flfp: storage: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("flfp: storage: mkdir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("flfp: storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("flfp: storage: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// ReadJSON unmarshals the file at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("flfp: storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("flfp: storage: unmarshal %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is present, the resume-by-file-presence
// check a caller makes before re-running a user's targeted fingerprint or
// re-running an iteration.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// UserArtifactPath returns the on-disk path for a per-user targeted
// fingerprint artifact, matching `targeted_rules.py`'s `users/{uid}.json`
// layout.
func UserArtifactPath(outDir, userID string) string {
	return filepath.Join(outDir, "users", userID+".json")
}

// IterationDirPath returns the on-disk directory for one iteration's
// artifacts, matching `iterative_robustness.py`'s `iter_N/` layout.
func IterationDirPath(outDir string, iteration int) string {
	return filepath.Join(outDir, fmt.Sprintf("iter_%d", iteration))
}

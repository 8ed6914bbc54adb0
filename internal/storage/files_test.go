package storage

import (
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestWriteAtomicJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "artifact.json")

	want := sample{Name: "alice", Value: 42}
	if err := WriteAtomicJSON(path, want); err != nil {
		t.Fatalf("WriteAtomicJSON: %v", err)
	}
	if !Exists(path) {
		t.Fatal("expected artifact to exist after write")
	}

	var got sample
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if Exists(path + ".tmp") {
		t.Error("temp file should have been renamed away, not left behind")
	}
}

func TestExists_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if Exists(filepath.Join(dir, "nope.json")) {
		t.Error("expected Exists to report false for a missing file")
	}
}

func TestUserArtifactPath_AndIterationDirPath(t *testing.T) {
	if got, want := UserArtifactPath("/out", "u1"), filepath.Join("/out", "users", "u1.json"); got != want {
		t.Errorf("UserArtifactPath: got %q, want %q", got, want)
	}
	if got, want := IterationDirPath("/out", 3), filepath.Join("/out", "iter_3"); got != want {
		t.Errorf("IterationDirPath: got %q, want %q", got, want)
	}
}

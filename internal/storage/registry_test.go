package storage

import (
	"path/filepath"
	"testing"
)

func TestRegistry_UserCompleteResumeSemantics(t *testing.T) {
	dir := t.TempDir()
	reg, err := OpenRegistry(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer reg.Close()

	if reg.UserComplete("run1", "alice") {
		t.Fatal("user should not be complete before being marked")
	}
	if err := reg.MarkUserComplete("run1", "alice"); err != nil {
		t.Fatalf("MarkUserComplete: %v", err)
	}
	if !reg.UserComplete("run1", "alice") {
		t.Error("user should be complete after being marked")
	}
	if reg.UserComplete("run1", "bob") {
		t.Error("a different user in the same run should not be marked complete")
	}
	if reg.UserComplete("run2", "alice") {
		t.Error("the same user in a different run should not be marked complete")
	}
}

func TestRegistry_IterationComplete(t *testing.T) {
	dir := t.TempDir()
	reg, err := OpenRegistry(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer reg.Close()

	if reg.IterationComplete("run1", 0) {
		t.Fatal("iteration 0 should not start complete")
	}
	if err := reg.MarkIterationComplete("run1", 0); err != nil {
		t.Fatalf("MarkIterationComplete: %v", err)
	}
	if !reg.IterationComplete("run1", 0) {
		t.Error("iteration 0 should be complete after being marked")
	}
	if reg.IterationComplete("run1", 1) {
		t.Error("iteration 1 should remain incomplete")
	}
}

func TestRegistry_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.db")

	reg, err := OpenRegistry(path)
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	if err := reg.MarkUserComplete("run1", "alice"); err != nil {
		t.Fatalf("MarkUserComplete: %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenRegistry(path)
	if err != nil {
		t.Fatalf("reopen OpenRegistry: %v", err)
	}
	defer reopened.Close()
	if !reopened.UserComplete("run1", "alice") {
		t.Error("completion state should survive closing and reopening the registry")
	}
}

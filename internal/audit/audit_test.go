package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogAndReadEntries(t *testing.T) {
	repoPath := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repoPath, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}

	entry := NewEntry("commit", "nithra")
	entry.Outcome = "completed"
	entry.Commit = "abc123"
	Log(repoPath, entry)

	declined := NewEntry("reset", "nithra")
	declined.Outcome = "declined"
	Log(repoPath, declined)

	entries, err := ReadEntries(repoPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	if entries[0].Operation != "commit" || entries[0].Outcome != "completed" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].RunID == "" || entries[0].Timestamp == "" {
		t.Errorf("Expected run ID and timestamp to be set: %+v", entries[0])
	}
	if entries[1].Operation != "reset" || entries[1].Outcome != "declined" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestLogWithoutRepoIsNoop(t *testing.T) {
	Log("", NewEntry("commit", "nithra"))
}

func TestReadEntriesMissingLog(t *testing.T) {
	entries, err := ReadEntries(t.TempDir())
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil entries, got %v", entries)
	}
}

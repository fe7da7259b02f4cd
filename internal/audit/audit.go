package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Entry is a single audit record. One is appended per workflow
// completion and per destructive-gate decline.
type Entry struct {
	Timestamp string `json:"ts"`  // RFC3339 with microseconds.
	RunID     string `json:"run"` // Unique per workflow invocation.
	Operation string `json:"op"`  // commit, reset, provision, deploy.
	Host      string `json:"host,omitempty"`
	Outcome   string `json:"outcome"` // completed, declined, failed.

	// Optional fields depending on operation.
	Commit      string `json:"commit,omitempty"`       // Hash of the commit produced.
	Branch      string `json:"branch,omitempty"`       // For reset.
	Remote      string `json:"remote,omitempty"`       // For push/force-push.
	Device      string `json:"device,omitempty"`       // For provision.
	FilesCount  int    `json:"files_count,omitempty"`  // Staged file count.
	Amend       bool   `json:"amend,omitempty"`        // For commit in amend mode.
	PartialDisk bool   `json:"partial_disk,omitempty"` // Device left mutated.
}

// NewEntry creates an entry with a fresh run ID.
func NewEntry(op, host string) Entry {
	return Entry{
		RunID:     uuid.New().String(),
		Operation: op,
		Host:      host,
	}
}

// Log appends an entry to the audit log. The log lives under .git so it
// never shows up as a working-copy change. Best effort: operations
// never fail because audit logging failed.
func Log(repoPath string, entry Entry) {
	if repoPath == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := filepath.Join(repoPath, ".git", "totara-audit.jsonl")

	// #nosec G306 -- the audit log carries no secret material.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log. Returns an empty
// slice when the log does not exist.
func ReadEntries(repoPath string) ([]Entry, error) {
	logPath := filepath.Join(repoPath, ".git", "totara-audit.jsonl")

	f, err := os.Open(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// Skip malformed lines rather than losing the rest.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

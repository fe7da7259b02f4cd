package secrets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/totara-dev/totara/internal/terrors"
)

// CommittedSource reads paths and blobs out of committed history.
// *git.Repo satisfies it; tests use a fake.
type CommittedSource interface {
	// LsTree lists the repository-relative paths in a revision's tree.
	LsTree(rev string) ([]string, error)

	// ShowBlob returns the committed blob content of path at a revision.
	ShowBlob(rev, path string) ([]byte, error)
}

// Violation describes one committed Layer-A blob that is not ciphertext.
type Violation struct {
	Path  string
	State State
}

// VerifyCommitted re-derives the state of every committed Layer-A blob
// at the given revision and fails unless all are ciphertext. This is the
// single authoritative gate for the encryption invariant: it must run
// after every commit-producing step and before any push.
func VerifyCommitted(src CommittedSource, classifier Classifier, rev string) error {
	paths, err := src.LsTree(rev)
	if err != nil {
		return fmt.Errorf("failed to list committed tree at %s: %w", rev, err)
	}

	var violations []Violation
	for _, path := range paths {
		if classifier.ClassifyPath(path) != LayerEval {
			continue
		}

		blob, err := src.ShowBlob(rev, path)
		if err != nil {
			return fmt.Errorf("failed to read committed blob %s at %s: %w", path, rev, err)
		}

		state, err := Sniff(blob, LayerEval)
		if err != nil || state != Ciphertext {
			violations = append(violations, Violation{Path: path, State: state})
		}
	}

	if len(violations) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, v := range violations {
		fmt.Fprintf(&sb, "\n  %s (committed as %s)", v.Path, v.State)
	}
	return fmt.Errorf("%w at %s:%s", terrors.ErrPlaintextCommitted, rev, sb.String())
}

// VerifyDecrypted is the mirror check for the activation layer: runtime
// files materialised for the given committed Layer-B paths must not
// still carry the ciphertext header before deployment proceeds.
func VerifyDecrypted(runtimeDir string) error {
	var encrypted []string

	err := filepath.WalkDir(runtimeDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read runtime secret %s: %w", path, err)
		}
		if firstLine(content) == ActivationHeader {
			encrypted = append(encrypted, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to inspect runtime store %s: %w", runtimeDir, err)
	}

	if len(encrypted) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", terrors.ErrCiphertextAtRuntime, strings.Join(encrypted, ", "))
}

package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/totara-dev/totara/internal/terrors"
)

// ValidateIdentity checks that a layer's private identity key exists and
// is a usable key before it is bound to the content filter. Accepts
// OpenSSH/PEM private keys and native age identities. The key material
// itself is never held longer than the check.
func ValidateIdentity(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", terrors.ErrIdentityNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read identity %s: %w", path, err)
	}

	if isAgeIdentity(data) {
		return nil
	}

	if _, err := ssh.ParseRawPrivateKey(data); err != nil {
		// Passphrase-protected keys are usable; the filter will prompt.
		var passErr *ssh.PassphraseMissingError
		if errors.As(err, &passErr) {
			return nil
		}
		return fmt.Errorf("identity %s is not a usable private key: %w", path, err)
	}

	return nil
}

// IdentityPermissionsOK reports whether the identity key file mode is
// restricted to the owner. A false result warrants a warning, not a
// failure.
func IdentityPermissionsOK(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Mode().Perm() == 0600
}

func isAgeIdentity(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		return bytes.HasPrefix(line, []byte("AGE-SECRET-KEY-1"))
	}
	return false
}

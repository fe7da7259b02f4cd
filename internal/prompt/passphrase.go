package prompt

import (
	"bytes"
	"fmt"
	"os"
	"unicode"

	"github.com/totara-dev/totara/internal/terrors"
)

// MinPassphraseLength is the minimum length for volume-encryption
// passphrases.
const MinPassphraseLength = 20

func stderr() *os.File { return os.Stderr }

// CheckPassphrase enforces the strength policy: minimum length and at
// least one lowercase letter, uppercase letter, digit, and symbol.
func CheckPassphrase(passphrase []byte) error {
	if len(passphrase) < MinPassphraseLength {
		return fmt.Errorf("%w: need at least %d characters", terrors.ErrWeakPassphrase, MinPassphraseLength)
	}

	var lower, upper, digit, symbol bool
	for _, r := range string(passphrase) {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !lower || !upper || !digit || !symbol {
		return fmt.Errorf("%w: need lowercase, uppercase, digit, and symbol", terrors.ErrWeakPassphrase)
	}
	return nil
}

// CollectPassphrase reads a passphrase meeting the policy, then a
// confirmation that must match exactly. Policy and mismatch failures
// are errors, not re-prompts: a workflow stops rather than loops.
func CollectPassphrase(p Prompter) ([]byte, error) {
	passphrase, err := p.ReadSecret("Volume encryption passphrase: ")
	if err != nil {
		return nil, err
	}

	if err := CheckPassphrase(passphrase); err != nil {
		return nil, err
	}

	confirm, err := p.ReadSecret("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(passphrase, confirm) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return passphrase, nil
}

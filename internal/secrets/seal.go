package secrets

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealInfo binds derived keys to this codec so the same identity used
// elsewhere never yields the same key material.
const sealInfo = "totara eval seal v1"

// sealKey derives the symmetric key from the identity file contents.
func sealKey(identity []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, bytes.TrimSpace(identity), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive seal key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext into the eval-layer stored form: the magic
// header line followed by the base64 of nonce plus AEAD ciphertext.
// Content already carrying the header passes through unchanged, so
// sealing is idempotent.
func Seal(identity, plaintext []byte) ([]byte, error) {
	if firstLine(plaintext) == EvalHeader {
		return plaintext, nil
	}

	key, err := sealKey(identity)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	var out bytes.Buffer
	out.WriteString(EvalHeader)
	out.WriteByte('\n')
	out.WriteString(base64.StdEncoding.EncodeToString(sealed))
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Unseal decrypts the eval-layer stored form back to plaintext. Content
// without the header passes through unchanged: blobs from before the
// filter was bound, or files that were never secrets, come back as-is.
func Unseal(identity, content []byte) ([]byte, error) {
	if firstLine(content) != EvalHeader {
		return content, nil
	}

	payload := bytes.TrimSpace(content[len(EvalHeader):])
	sealed, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return nil, fmt.Errorf("malformed sealed payload: %w", err)
	}

	key, err := sealKey(identity)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed payload truncated")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal: wrong identity or corrupted content")
	}
	return plaintext, nil
}

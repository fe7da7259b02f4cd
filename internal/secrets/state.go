package secrets

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/totara-dev/totara/internal/terrors"
)

// State is the observable at-rest state of a secret file, derived by
// inspecting content and never stored explicitly.
type State int

const (
	// Missing means the file does not exist at the inspected source.
	Missing State = iota

	// Plaintext means the content is readable structured configuration.
	Plaintext

	// Ciphertext means the content carries the layer's encryption header.
	Ciphertext
)

func (s State) String() string {
	switch s {
	case Plaintext:
		return "plaintext"
	case Ciphertext:
		return "ciphertext"
	default:
		return "missing"
	}
}

// Magic headers. The first line of an encrypted blob identifies it
// without decrypting; both verification directions share these.
const (
	// EvalHeader leads Layer-A blobs produced by the content filter.
	EvalHeader = "-----TOTARA ENCRYPTED EVAL SECRET-----"

	// ActivationHeader leads armored Layer-B files.
	ActivationHeader = "-----BEGIN AGE ENCRYPTED FILE-----"
)

// Header returns the magic header for a layer.
func Header(layer Layer) string {
	if layer == LayerActivation {
		return ActivationHeader
	}
	return EvalHeader
}

// Sniff classifies content as Plaintext or Ciphertext for the given
// layer. Content that is neither the layer's ciphertext nor parseable
// configuration is a hard error, never silently treated as either.
func Sniff(content []byte, layer Layer) (State, error) {
	if firstLine(content) == Header(layer) {
		return Ciphertext, nil
	}

	if isConfigSyntax(content) {
		return Plaintext, nil
	}

	return Missing, fmt.Errorf("%w (%s layer)", terrors.ErrUnclassifiable, layer)
}

// StateOf inspects a file in the working copy.
func StateOf(path string, layer Layer) (State, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Missing, nil
	}
	if err != nil {
		return Missing, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Sniff(content, layer)
}

func firstLine(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	return strings.TrimRight(string(content), "\r")
}

// isConfigSyntax reports whether content looks like the expression
// syntax secret files are written in: UTF-8 text with balanced braces,
// brackets, and parentheses outside of strings and comments. Empty and
// comment-only files count as valid.
func isConfigSyntax(content []byte) bool {
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return false
	}

	var depth []byte
	inString := false
	inLineComment := false
	inBlockComment := false

	s := string(content)
	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		default:
			switch c {
			case '"':
				inString = true
			case '#':
				inLineComment = true
			case '/':
				if i+1 < len(s) && s[i+1] == '*' {
					inBlockComment = true
					i++
				}
			case '{', '[', '(':
				depth = append(depth, c)
			case '}', ']', ')':
				if len(depth) == 0 {
					return false
				}
				open := depth[len(depth)-1]
				if (c == '}' && open != '{') || (c == ']' && open != '[') || (c == ')' && open != '(') {
					return false
				}
				depth = depth[:len(depth)-1]
			}
		}
	}

	return len(depth) == 0 && !inString
}

package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/totara-dev/totara/internal/terrors"
)

func TestSniffCiphertextByHeader(t *testing.T) {
	content := []byte(EvalHeader + "\nU2FsdGVkX1+abc123\n")
	state, err := Sniff(content, LayerEval)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if state != Ciphertext {
		t.Errorf("Expected Ciphertext, got %v", state)
	}
}

func TestSniffHeaderIsLayerSpecific(t *testing.T) {
	// An activation header on an eval-layer file is not eval ciphertext,
	// and the armored payload is not config syntax either.
	content := []byte(ActivationHeader + "\nYWdlLWVuY3J5cHRpb24u...\n")
	_, err := Sniff(content, LayerEval)
	if err == nil {
		t.Fatal("Expected classification error for cross-layer header")
	}

	state, err := Sniff(content, LayerActivation)
	if err != nil {
		t.Fatalf("Sniff failed for activation layer: %v", err)
	}
	if state != Ciphertext {
		t.Errorf("Expected Ciphertext for activation layer, got %v", state)
	}
}

func TestSniffPlaintextConfig(t *testing.T) {
	cases := []string{
		"{foo=1}",
		"{\n  wifi.home.psk = \"hunter2hunter2hunter2\";\n}\n",
		"",
		"# nothing here yet\n",
		"/* reserved for api keys */\n",
		"[token]\nvalue = \"abc\"\n",
	}
	for _, content := range cases {
		state, err := Sniff([]byte(content), LayerEval)
		if err != nil {
			t.Errorf("Sniff(%q) failed: %v", content, err)
			continue
		}
		if state != Plaintext {
			t.Errorf("Sniff(%q) = %v, want Plaintext", content, state)
		}
	}
}

func TestSniffUnclassifiableIsHardError(t *testing.T) {
	cases := [][]byte{
		[]byte("{unclosed = true"),
		[]byte("closed} too early"),
		{0x00, 0x01, 0x02, 0xff},
		[]byte("\"unterminated string"),
	}
	for _, content := range cases {
		_, err := Sniff(content, LayerEval)
		if err == nil {
			t.Errorf("Sniff(%q) succeeded, want hard error", content)
			continue
		}
		if !errors.Is(err, terrors.ErrUnclassifiable) {
			t.Errorf("Sniff(%q) error = %v, want ErrUnclassifiable", content, err)
		}
	}
}

func TestSniffStringsAndCommentsHideDelimiters(t *testing.T) {
	content := []byte("{ note = \"a } inside a string\"; } # and a } in a comment\n")
	state, err := Sniff(content, LayerEval)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if state != Plaintext {
		t.Errorf("Expected Plaintext, got %v", state)
	}
}

func TestStateOfMissingFile(t *testing.T) {
	state, err := StateOf(filepath.Join(t.TempDir(), "absent.tsec"), LayerEval)
	if err != nil {
		t.Fatalf("StateOf failed: %v", err)
	}
	if state != Missing {
		t.Errorf("Expected Missing, got %v", state)
	}
}

func TestStateOfWorkingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.tsec")
	if err := os.WriteFile(path, []byte("{foo=1}"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	state, err := StateOf(path, LayerEval)
	if err != nil {
		t.Fatalf("StateOf failed: %v", err)
	}
	if state != Plaintext {
		t.Errorf("Expected Plaintext, got %v", state)
	}
}

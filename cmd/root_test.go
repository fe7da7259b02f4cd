package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommitFlagsAreMutuallyExclusive(t *testing.T) {
	_, err := executeCommand(t, "commit", "--amend", "--reset")
	if err == nil {
		t.Fatal("Expected --amend and --reset together to be rejected")
	}
	if !strings.Contains(err.Error(), "none of the others can be") {
		t.Errorf("Expected the mutual-exclusion error, got: %v", err)
	}
}

func TestSealRequiresIdentityFlag(t *testing.T) {
	_, err := executeCommand(t, "seal", "encrypt")
	if err == nil {
		t.Fatal("Expected seal without --identity to be rejected")
	}
	if !strings.Contains(err.Error(), "identity") {
		t.Errorf("Expected the missing-flag error, got: %v", err)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"commit", "deploy", "provision", "status", "seal"} {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Subcommand %s not registered", name)
		}
	}
}

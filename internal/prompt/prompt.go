package prompt

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// Prompter supplies interactive answers to workflows. The workflows
// depend only on this interface, so their state machines are testable
// with canned answers and no terminal.
type Prompter interface {
	// ReadLine shows a prompt and returns one line of input.
	ReadLine(prompt string) (string, error)

	// ReadSecret shows a prompt and returns input without echo.
	ReadSecret(prompt string) ([]byte, error)

	// Interactive reports whether a controlling terminal is available.
	Interactive() bool
}

// TTY reads from the controlling terminal directly, even when the
// process's stdin or stdout is redirected. Piped input can therefore
// never satisfy a confirmation.
type TTY struct{}

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

// Interactive reports whether the controlling terminal can be opened.
func (TTY) Interactive() bool {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false
	}
	defer tty.Close()
	return term.IsTerminal(int(tty.Fd()))
}

// ReadLine prompts on stderr and reads one line from the controlling
// terminal.
func (TTY) ReadLine(prompt string) (string, error) {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return "", fmt.Errorf("cannot open %s for input: %w", ttyPath(), err)
	}
	defer tty.Close()

	fmt.Fprint(os.Stderr, prompt)

	line, err := bufio.NewReader(tty).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read from terminal: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret prompts on stderr and reads without echoing input.
func (TTY) ReadSecret(prompt string) ([]byte, error) {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for secret input: %w", ttyPath(), err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", ttyPath())
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Newline after hidden input.

	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return secret, nil
}

// Canned answers prompts from fixed slices, for tests.
type Canned struct {
	Lines   []string
	Secrets [][]byte

	// Asked records every prompt shown, in order.
	Asked []string

	line, secret int
}

func (c *Canned) Interactive() bool { return true }

func (c *Canned) ReadLine(prompt string) (string, error) {
	c.Asked = append(c.Asked, prompt)
	if c.line >= len(c.Lines) {
		return "", fmt.Errorf("no canned answer for prompt %q", prompt)
	}
	answer := c.Lines[c.line]
	c.line++
	return answer, nil
}

func (c *Canned) ReadSecret(prompt string) ([]byte, error) {
	c.Asked = append(c.Asked, prompt)
	if c.secret >= len(c.Secrets) {
		return nil, fmt.Errorf("no canned secret for prompt %q", prompt)
	}
	answer := c.Secrets[c.secret]
	c.secret++
	return answer, nil
}

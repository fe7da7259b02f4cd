package prompt

import (
	"fmt"
	"strings"

	"github.com/totara-dev/totara/internal/ui"
)

// DestructiveToken is the exact literal required to pass a destructive
// confirmation. Any other input, including case variants, is a decline.
const DestructiveToken = "YES"

// ConfirmReversible asks a yes/no question for reversible operations
// (rebase, ordinary push). Accepts y/yes case-insensitively; anything
// else is a decline. Declines are not errors.
func ConfirmReversible(p Prompter, question string) (bool, error) {
	answer, err := p.ReadLine(question + " [y/N] ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmDestructiveLocal gates operations that discard local history.
// Only the exact literal token confirms; ambiguity resolves to decline.
func ConfirmDestructiveLocal(p Prompter, description string) (bool, error) {
	fmt.Fprintln(stderr(), ui.Warning.Sprint(description))
	answer, err := p.ReadLine(fmt.Sprintf("Type %s to continue: ", ui.Code.Sprint(DestructiveToken)))
	if err != nil {
		return false, err
	}
	return answer == DestructiveToken, nil
}

// ConfirmDestructiveRemote gates operations that force-overwrite shared
// history. The destination is shown first, then the exact token is
// required again, independently of any earlier confirmation.
func ConfirmDestructiveRemote(p Prompter, destination string) (bool, error) {
	fmt.Fprintln(stderr(), ui.Warning.Sprint("This will overwrite the remote history at ")+ui.Highlight.Sprint(destination))
	answer, err := p.ReadLine(fmt.Sprintf("Type %s to overwrite the remote: ", ui.Code.Sprint(DestructiveToken)))
	if err != nil {
		return false, err
	}
	return answer == DestructiveToken, nil
}

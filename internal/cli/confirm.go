package cli

import (
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/pomdtr/vt/internal/workspace"
)

func shouldPromptForConfirm() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// promptForConfirm asks a yes/no question on the terminal. It answers no when
// there is no terminal or the prompt is aborted.
func promptForConfirm(message string) bool {
	if !shouldPromptForConfirm() {
		return false
	}
	if message == "" {
		message = "Apply changes?"
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		getLogger().Debug("prompt aborted", "err", err)
		return false
	}
	return ok
}

// confirmFunc picks the sync prompt policy from --yes/--no.
func confirmFunc(yes, no bool) workspace.ConfirmFunc {
	switch {
	case yes:
		return workspace.AutoAccept
	case no:
		return workspace.AutoDecline
	default:
		return promptForConfirm
	}
}

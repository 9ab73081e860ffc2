package display

import (
	"os"

	"golang.org/x/term"

	"github.com/cfnplot/cfnplot/internal/util"
)

const fallbackWidth = 120

// Width returns the terminal width, with a fallback for pipes and absurdly
// narrow terminals.
func Width() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth < 60 {
		util.LogDebugf("Terminal width unavailable, using fallback %d", fallbackWidth)
		return fallbackWidth
	}
	return termWidth
}

// IsTTY reports whether stdout is a terminal; colored output is disabled
// when it is not.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

package cli

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

var warningPrefix = pterm.Prefix{
	Text:  "Warning",
	Style: pterm.NewStyle(pterm.FgYellow, pterm.Bold),
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning".
func warningf(w io.Writer, format string, a ...interface{}) {
	pterm.Warning.WithPrefix(warningPrefix).WithWriter(w).Printfln(format, a...)
}

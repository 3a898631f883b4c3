package internal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Output receives everything written by Echo and Fatal.
	Output io.Writer = os.Stderr
	exit             = os.Exit

	errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Fatal will Echo the message prefixed with "error:" and os.Exit with code 1.
func Fatal(msg string, args ...any) {
	Echo(errorPrefix("error: ")+msg, args...)
	exit(1)
}

// Echo will emit the given message without any logging formatting.
func Echo(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprintf(Output, msg, args...)
}

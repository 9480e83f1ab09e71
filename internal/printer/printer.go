// Package printer provides colored terminal output helpers for the chalk CLI.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ "+format, a...)
}

// Info prints an informational message in the default color.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf(format, a...)
}

// Errorf prints an error message in red to stderr and returns the same
// message as an error for Cobra to propagate.
func Errorf(format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	red.Fprintf(os.Stderr, "%s\n", err.Error())
	return err
}

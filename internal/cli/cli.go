// Package cli implements the deprule command-line interface.
//
// The root command checks a Cargo workspace against its dependency rules:
// it prints the dependency tree of every workspace member, highlights each
// forbidden edge, and fails when at least one was found.
//
// # Commands
//
//   - check (also the root command): print the trees and fail on violations
//   - tree: print the trees without failing
//   - graph: export the graph as DOT, SVG, PDF or PNG
//   - rules list, rules fmt: inspect and normalize the rules file
//   - completion: shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context; the tree itself goes to stdout and
// everything else to stderr.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	deperrors "github.com/matzehuels/deprule/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "deprule"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitViolation = 1
	ExitError     = 2
	ExitCancelled = 130
)

// ErrViolation is returned by the check command when a dependency rule is
// broken. It is not a failure of the tool itself.
var ErrViolation = errors.New("dependency rule violations found")

// ExitCode maps the result of a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrViolation):
		return ExitViolation
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	default:
		return ExitError
	}
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// userError returns the message shown for err, with the error code for
// coded errors.
func userError(err error) string {
	if code := deperrors.GetCode(err); code != "" {
		return "error[" + string(code) + "]: " + deperrors.UserMessage(err)
	}
	return "error: " + err.Error()
}

// PrintError writes err to w the way the command line reports failures.
// Violations were already summarized by the command and are not repeated.
func PrintError(w io.Writer, err error) {
	switch {
	case errors.Is(err, ErrViolation):
	case errors.Is(err, context.Canceled):
		printWarning(w, "interrupted")
	default:
		printFailure(w, "%s", userError(err))
	}
}

package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI commands.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	se, ok := err.(*SiteError)
	if !ok {
		return 1
	}

	switch se.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryStorage, CategoryWebring, CategoryDeploy:
		return 8 // External system error
	case CategoryRender, CategoryFeed, CategoryFilesystem:
		return 11 // Output error
	case CategoryEditor, CategoryDaemon:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	se, ok := err.(*SiteError)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	if a.verbose {
		return se.Error()
	}
	switch se.Category {
	case CategoryConfig, CategoryValidation, CategoryEditor:
		return se.Message
	default:
		return fmt.Sprintf("%s: %s", se.Category, se.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged in addition to the
// user-facing line.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if se, ok := err.(*SiteError); ok {
		return se.Category == CategoryInternal || se.Severity == SeverityFatal
	}
	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	se, ok := err.(*SiteError)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	level := slog.LevelError
	if se.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("category", string(se.Category)),
	}
	for key, value := range se.Context {
		attrs = append(attrs, slog.Any(key, value))
	}
	a.logger.LogAttrs(nil, level, se.Message, attrs...)
}

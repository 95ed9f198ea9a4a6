package main

import (
	"context"
	"errors"
	"os"

	md2lms "github.com/alnah/go-md2lms"
	"github.com/alnah/go-md2lms/internal/config"
)

// Exit codes for md2lms CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
// Per-file conversion failures do not change the exit code.
const (
	ExitSuccess = 0 // Batch ran (individual files may have failed)
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid arguments, flags or config
	ExitIO      = 3 // Input directory missing, output directory not creatable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, md2lms.ErrInvalidTables) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, ErrInputDirectory) ||
		errors.Is(err, ErrOutputDirectory) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	if errors.Is(err, context.Canceled) {
		return ExitGeneral
	}

	return ExitGeneral
}

// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2lms/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-md2lms/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForInputDirectory returns hints for a missing input directory. When the
// directory came from the built-in default, the positional form is suggested.
func ForInputDirectory(defaulted bool) string {
	if defaulted {
		return format("pass input and output directories: md2lms <input_dir> <output_dir>")
	}
	return format("check the path exists and is a directory")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	if IsInContainer() {
		return formatHints([]string{
			"check parent directory exists and is writable",
			"mount the output directory as a writable volume",
		})
	}
	return format("check parent directory exists and is writable")
}

// ForUnknownEncoding returns hints for unrecognized encoding names.
func ForUnknownEncoding() string {
	return format("use IANA names such as utf-8, windows-1252, iso-8859-1")
}

// ForNoTotalFallback returns hints for candidate lists that can fail to decode.
func ForNoTotalFallback() string {
	return format("end sanitize.encodings with a single-byte encoding such as iso-8859-1")
}

// ForInvalidReplacement lists the tags a replacement may target.
func ForInvalidReplacement(allowed []string) string {
	if len(allowed) == 0 {
		return ""
	}
	return format("replacement targets must be allowed tags: " + strings.Join(allowed, ", "))
}

// ForUnstableTable returns hints for character tables that are not idempotent.
func ForUnstableTable() string {
	return format("a replacement output must not contain any pattern of the table")
}

// ForOutputCollision names the file whose output was kept.
func ForOutputCollision(winner string) string {
	if winner == "" {
		return ""
	}
	return format("rename one of the sources; " + winner + " keeps the output name")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

package sanitize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alnah/go-md2lms/internal/fileutil"
	"github.com/alnah/go-md2lms/internal/logging"
)

// ErrNotDirectory is returned when NormalizeDirectory is given a path that is
// not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DefaultBinaryExtensions returns the extensions skipped by the directory pass.
func DefaultBinaryExtensions() []string {
	return []string{
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff",
		".zip", ".rar", ".7z", ".tar", ".gz",
		".mp4", ".avi", ".mov", ".wmv", ".flv",
		".pdf", ".doc", ".docx", ".xls", ".xlsx",
		".exe", ".dll", ".so", ".dylib",
	}
}

// DefaultHTMLExtensions returns the extensions normalized in HTML mode.
func DefaultHTMLExtensions() []string {
	return []string{".html", ".htm"}
}

// Sanitizer runs the decode and normalize steps over whole directories.
type Sanitizer struct {
	decoder    *Decoder
	normalizer *Normalizer
	binaryExts []string
	htmlExts   []string
	logger     *slog.Logger
}

// SanitizerOption configures a Sanitizer.
type SanitizerOption func(*Sanitizer)

// WithBinaryExtensions replaces the list of skipped extensions.
func WithBinaryExtensions(exts ...string) SanitizerOption {
	return func(s *Sanitizer) { s.binaryExts = append([]string(nil), exts...) }
}

// WithHTMLExtensions replaces the list of extensions normalized as HTML.
func WithHTMLExtensions(exts ...string) SanitizerOption {
	return func(s *Sanitizer) { s.htmlExts = append([]string(nil), exts...) }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) SanitizerOption {
	return func(s *Sanitizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSanitizer creates a Sanitizer. Nil decoder or normalizer select the
// defaults.
func NewSanitizer(d *Decoder, n *Normalizer, opts ...SanitizerOption) *Sanitizer {
	if d == nil {
		d = DefaultDecoder()
	}
	if n == nil {
		n = DefaultNormalizer()
	}
	s := &Sanitizer{
		decoder:    d,
		normalizer: n,
		binaryExts: DefaultBinaryExtensions(),
		htmlExts:   DefaultHTMLExtensions(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeDirectory decodes and normalizes every non-binary file below dir
// and rewrites it as UTF-8 when its bytes change. It returns the number of
// files processed. Per-file failures are joined into the returned error and
// do not stop the walk; cancellation does.
func (s *Sanitizer) NormalizeDirectory(ctx context.Context, dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var (
		count int
		errs  []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if fileutil.HasExtension(path, s.binaryExts) {
			s.logger.Debug("skipping binary file", "path", path)
			return nil
		}

		if err := s.normalizeFile(path, d); err != nil {
			errs = append(errs, err)
			s.logger.Warn("could not sanitize file", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return count, errors.Join(errs...)
}

func (s *Sanitizer) normalizeFile(path string, d fs.DirEntry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	text, enc := s.decoder.Decode(data)
	isHTML := fileutil.HasExtension(path, s.htmlExts)
	out := s.normalizer.Normalize(text, isHTML)
	s.logger.Log(context.Background(), logging.LevelTrace, "sanitized file",
		"path", path, "encoding", enc, "html", isHTML)

	if out == string(data) {
		return nil
	}

	perm := fs.FileMode(0o644)
	if info, err := d.Info(); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fileutil.WriteFileAtomic(path, []byte(out), perm); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

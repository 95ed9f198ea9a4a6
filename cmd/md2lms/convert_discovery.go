package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-md2lms/internal/fileutil"
)

// outputExtension is the extension of every converted file.
const outputExtension = ".html"

// ErrOutputCollision is returned for a file whose output path is already
// taken by an earlier file in lexical order.
var ErrOutputCollision = errors.New("output file collides with another source")

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
	RelPath    string // InputPath relative to the input directory
	OutputRel  string // OutputPath relative to the output directory

	// CollidesWith is the RelPath of the earlier file that owns OutputPath.
	// Empty when the output path is free.
	CollidesWith string
}

// discoverFiles walks inputDir in lexical order and returns the files whose
// extension is one of exts. When outputDir lies inside inputDir it is not
// descended into, so earlier results are never reconverted.
func discoverFiles(inputDir, outputDir string, exts []string) ([]FileToConvert, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is not a directory", ErrInputDirectory, inputDir)
	}

	skipDir := absPath(outputDir)
	owners := make(map[string]string)

	var files []FileToConvert
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if path != inputDir && absPath(path) == skipDir {
				return fs.SkipDir
			}
			return nil
		}
		if !fileutil.HasExtension(path, exts) || !isRegularFile(path, d) {
			return nil
		}

		f, err := newFileToConvert(path, inputDir, outputDir)
		if err != nil {
			return err
		}
		if owner, taken := owners[f.OutputPath]; taken {
			f.CollidesWith = owner
		} else {
			owners[f.OutputPath] = f.RelPath
		}
		files = append(files, f)
		return nil
	})

	return files, err
}

// newFileToConvert mirrors path's position under inputDir into outputDir.
func newFileToConvert(path, inputDir, outputDir string) (FileToConvert, error) {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		return FileToConvert{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	outRel := resolveOutputPath(rel)
	return FileToConvert{
		InputPath:  path,
		OutputPath: filepath.Join(outputDir, outRel),
		RelPath:    rel,
		OutputRel:  outRel,
	}, nil
}

// resolveOutputPath returns the output path for an input path relative to
// the input directory: same directory, .html extension.
//
// Examples:
//   - "a.md" -> "a.html"
//   - "unit1/b.markdown" -> "unit1/b.html"
func resolveOutputPath(relPath string) string {
	return fileutil.ReplaceExtension(relPath, outputExtension)
}

// isRegularFile reports whether d is a regular file or a symlink to one.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	return fileutil.FileExists(path)
}

// absPath returns the cleaned absolute form of path, or its cleaned form
// when the working directory is unknown.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

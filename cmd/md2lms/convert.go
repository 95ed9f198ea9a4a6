package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	md2lms "github.com/alnah/go-md2lms"
	"github.com/alnah/go-md2lms/internal/config"
	"github.com/alnah/go-md2lms/internal/fileutil"
	"github.com/alnah/go-md2lms/internal/hints"
	"github.com/alnah/go-md2lms/internal/logging"
	"github.com/alnah/go-md2lms/internal/sanitize"
	"github.com/alnah/go-md2lms/internal/tagfilter"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for the convert command.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInputDirectory     = errors.New("input directory does not exist")
	ErrOutputDirectory    = errors.New("cannot create output directory")
)

// builtinConfigSource names the configuration used when --config is absent.
const builtinConfigSource = "built-in defaults"

// runConvertCmd parses convert flags and runs the conversion.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return runConvert(ctx, positional, flags, env)
}

// runConvert converts every markdown file of the input directory, prints a
// report and sanitizes the output directory. Per-file failures are reported
// but do not make it return an error.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(positionalArgs) != 0 && len(positionalArgs) != 2 {
		return fmt.Errorf("%w: expected input_dir and output_dir, got %d argument(s)", ErrUsage, len(positionalArgs))
	}

	cfg, _, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}

	// Merge CLI flags into config (CLI wins)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w%s", err, configHint(err, cfg))
	}

	logger := logging.NewLogger(cfg.Effective().Log.Level, env.Stderr)

	inputDir, outputDir, defaulted := resolveDirs(positionalArgs, cfg)
	if !fileutil.DirExists(inputDir) {
		return fmt.Errorf("%w: '%s'%s", ErrInputDirectory, inputDir, hints.ForInputDirectory(defaulted))
	}
	if err := os.MkdirAll(outputDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %v%s", ErrOutputDirectory, err, hints.ForOutputDirectory())
	}

	conv, err := newConverter(cfg, logger)
	if err != nil {
		return fmt.Errorf("%w%s", err, configHint(err, cfg))
	}

	quiet := flags.common.quiet
	if !quiet {
		printConfiguration(inputDir, outputDir, env)
	}

	files, err := discoverFiles(inputDir, outputDir, cfg.InputExtensions())
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		if !quiet {
			fmt.Fprintf(env.Stdout, "No Markdown files found in '%s'.\n", inputDir)
		}
		return nil
	}
	if !quiet {
		fmt.Fprintf(env.Stdout, "Found %d Markdown files to convert...\n\n", len(files))
	}

	start := env.Now()
	workers := md2lms.ResolveWorkers(flags.workers)
	logger.Debug("starting batch", "files", len(files), "workers", workers)

	results := convertBatch(ctx, conv, files, workers, logger)
	summary := printResults(results, flags.common, env)

	if err := ctx.Err(); err != nil {
		return err
	}

	if summary.Succeeded > 0 && cfg.FinalPassEnabled() {
		runFinalPass(ctx, conv, outputDir, quiet, env, logger)
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "\nHTML files saved in: %s\n", outputDir)
		if flags.common.verbose {
			fmt.Fprintf(env.Stdout, "Total time: %v\n", env.Now().Sub(start).Round(time.Millisecond))
		}
	}
	return nil
}

// runFinalPass sanitizes the whole output directory. Failures are reported
// but never fail the run: the converted files are already written.
func runFinalPass(ctx context.Context, conv Converter, outputDir string, quiet bool, env *Environment, logger *slog.Logger) {
	if !quiet {
		fmt.Fprintln(env.Stdout, "\nApplying UTF-8 encoding and sanitization to output directory...")
	}

	count, err := conv.NormalizeDirectory(ctx, outputDir)
	if err != nil {
		logger.Warn("final pass incomplete", "dir", outputDir, "error", err)
		fmt.Fprintf(env.Stderr, "warning: sanitizing %s: %v\n", outputDir, err)
	}
	if !quiet {
		fmt.Fprintf(env.Stdout, "Processed and sanitized: %d files\n", count)
	}
}

// printConfiguration echoes the resolved directories before the batch starts.
func printConfiguration(inputDir, outputDir string, env *Environment) {
	fmt.Fprintln(env.Stdout, "Configuration:")
	fmt.Fprintf(env.Stdout, "  Input directory:  %s\n", inputDir)
	fmt.Fprintf(env.Stdout, "  Output directory: %s\n", outputDir)
	fmt.Fprintln(env.Stdout, strings.Repeat("-", 50))
}

// loadConfig returns the configuration named by nameOrPath, or the
// environment's configuration when it is empty, with its source.
func loadConfig(nameOrPath string, env *Environment) (*config.Config, string, error) {
	if nameOrPath == "" {
		if env.Config == nil {
			return config.DefaultConfig(), builtinConfigSource, nil
		}
		cfg := *env.Config
		return &cfg, builtinConfigSource, nil
	}

	cfg, path, err := config.LoadConfig(nameOrPath)
	if err != nil {
		hint := configHint(err, nil)
		if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(nameOrPath) {
			hint = hints.ForConfigNotFound(config.SearchPaths(nameOrPath))
		}
		return nil, "", fmt.Errorf("loading config: %w%s", err, hint)
	}
	return cfg, path, nil
}

// configHint returns the hint matching a table validation error, if any.
// cfg may be nil when the configuration could not be loaded.
func configHint(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, sanitize.ErrUnknownEncoding):
		return hints.ForUnknownEncoding()
	case errors.Is(err, sanitize.ErrNoTotalFallback):
		return hints.ForNoTotalFallback()
	case errors.Is(err, sanitize.ErrUnstableTable):
		return hints.ForUnstableTable()
	case errors.Is(err, tagfilter.ErrInvalidReplacement):
		if cfg == nil {
			return ""
		}
		return hints.ForInvalidReplacement(cfg.TagFilterConfig().Tags.Names())
	}
	return ""
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if len(flags.input.extensions) > 0 {
		cfg.Input.Extensions = append([]string(nil), flags.input.extensions...)
	}
	if flags.sanitize.noFinalPass {
		disabled := false
		cfg.Sanitize.FinalPass = &disabled
	}

	// --log-level wins over --verbose, which only raises the default
	switch {
	case flags.common.logLevel != "":
		cfg.Log.Level = flags.common.logLevel
	case flags.common.verbose && cfg.Log.Level == "":
		cfg.Log.Level = "debug"
	case flags.common.quiet && cfg.Log.Level == "":
		cfg.Log.Level = "error"
	}
}

// resolveDirs returns the input and output directories from the positional
// arguments, falling back to the configured or built-in defaults. defaulted
// reports whether the fallback was used.
func resolveDirs(args []string, cfg *config.Config) (inputDir, outputDir string, defaulted bool) {
	if len(args) == 2 {
		return args[0], args[1], false
	}
	eff := cfg.Effective()
	return eff.Input.DefaultDir, eff.Output.DefaultDir, true
}

// newConverter builds the library converter from the effective tables.
func newConverter(cfg *config.Config, logger *slog.Logger) (*md2lms.Converter, error) {
	eff := cfg.Effective()

	chars := make([]md2lms.CharacterReplacement, 0, len(eff.Sanitize.Characters))
	for _, r := range eff.Sanitize.Characters {
		chars = append(chars, md2lms.CharacterReplacement(r))
	}

	return md2lms.NewConverter(
		md2lms.WithTagSet(eff.Filter.AllowedTags),
		md2lms.WithTagReplacements(eff.Filter.Replacements),
		md2lms.WithDiscardedTags(eff.Filter.Discard...),
		md2lms.WithEncodings(eff.Sanitize.Encodings...),
		md2lms.WithCharacterReplacements(chars...),
		md2lms.WithBinaryExtensions(eff.Sanitize.BinaryExtensions...),
		md2lms.WithHTMLExtensions(eff.Sanitize.HTMLExtensions...),
		md2lms.WithLogger(logger),
	)
}

// validateWorkers checks that the worker count is within acceptable bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, n)
	}
	if n > md2lms.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2lms.MaxWorkers)
	}
	return nil
}

package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	quiet    bool
	verbose  bool
	logLevel string
}

// inputFlags holds input discovery flags.
type inputFlags struct {
	extensions []string
}

// sanitizeFlags holds output directory pass flags.
type sanitizeFlags struct {
	noFinalPass bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	workers  int
	input    inputFlags
	sanitize sanitizeFlags
}

// configFlags holds flags for the config command.
type configFlags struct {
	config string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
	fs.StringVar(&f.logLevel, "log-level", "", "diagnostics level: trace, debug, info, warn, error")
}

// addInputFlags adds input discovery flags to a FlagSet.
func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringSliceVar(&f.extensions, "ext", nil, "markdown file extension (repeatable)")
}

// addSanitizeFlags adds output directory pass flags to a FlagSet.
func addSanitizeFlags(fs *flag.FlagSet, f *sanitizeFlags) {
	fs.BoolVar(&f.noFinalPass, "no-final-pass", false, "skip sanitizing the output directory")
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage goes to w when --help is given.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet(cmdConvert, flag.ContinueOnError)
	f := &convertFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)
	addSanitizeFlags(fs, &f.sanitize)

	fs.SetOutput(w)
	fs.Usage = func() { printConvertUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, w io.Writer) (*configFlags, []string, error) {
	fs := flag.NewFlagSet(cmdConfig, flag.ContinueOnError)
	f := &configFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")

	fs.SetOutput(w)
	fs.Usage = func() { printConfigUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

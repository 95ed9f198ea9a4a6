package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdConvert = "convert"
	cmdConfig  = "config"
	cmdHelp    = "help"
	cmdVersion = "version"
)

func main() {
	// Configure GOMAXPROCS with conditional logging
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if hasVerboseFlag(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches args (including the program name) to a command and
// returns the process exit code. Without a command, args go to convert.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) > 0 {
		args = args[1:]
	}

	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	cmd, rest := cmdConvert, args
	if len(args) > 0 && isCommand(args[0]) {
		cmd, rest = args[0], args[1:]
	}

	var err error
	switch cmd {
	case cmdHelp:
		return runHelp(rest, env)
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "md2lms %s\n", Version)
		return ExitSuccess
	case cmdConfig:
		err = runConfigCmd(rest, env)
	default:
		err = runConvertCmd(ctx, rest, env)
	}

	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		if exitCodeFor(err) == ExitUsage {
			fmt.Fprintln(env.Stderr, "Run 'md2lms help' for usage.")
		}
	}
	return exitCodeFor(err)
}

// isCommand reports whether arg names a subcommand rather than a path.
func isCommand(arg string) bool {
	switch arg {
	case cmdConvert, cmdConfig, cmdHelp, cmdVersion:
		return true
	}
	return false
}

// hasVerboseFlag scans args before flag parsing, for settings needed in main.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}

package main

import (
	"errors"
	"fmt"

	"github.com/alnah/go-md2lms/internal/yamlutil"
	flag "github.com/spf13/pflag"
)

// runConfigCmd prints the effective configuration. The output is a valid
// config file: loading it back yields the same tables.
func runConfigCmd(args []string, env *Environment) error {
	flags, positional, err := parseConfigFlags(args, env.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %q", ErrUsage, positional[0])
	}

	cfg, source, err := loadConfig(flags.config, env)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("md2lms %s effective configuration\nsource: %s", Version, source)
	data, err := yamlutil.MarshalWithComment(header, cfg.Effective())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = env.Stdout.Write(data)
	return err
}

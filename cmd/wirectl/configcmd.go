package main

import (
	"flag"
	"fmt"

	"github.com/danmuck/wirecodec/internal/config"
	"github.com/rs/zerolog/log"
)

func runConfig(e env, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "usage: wirectl config init|validate [flags]")
		return errUsage
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("config init", flag.ContinueOnError)
		fs.SetOutput(e.stderr)
		output := fs.String("output", config.DefaultPath, "output path for config template")
		force := fs.Bool("force", false, "overwrite existing config file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := config.WriteTemplate(*output, *force); err != nil {
			return err
		}
		log.Info().Str("path", *output).Msg("wrote config template")
		return nil
	case "validate":
		fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
		fs.SetOutput(e.stderr)
		input := fs.String("input", config.DefaultPath, "config path to validate")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if _, err := config.Load(*input); err != nil {
			return err
		}
		log.Info().Str("path", *input).Msg("validated config")
		return nil
	default:
		fmt.Fprintf(e.stderr, "wirectl config: unknown action %q\n", args[0])
		return errUsage
	}
}

// Package cli implements the calcsteps command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/njchilds90/calcsteps"
	"github.com/njchilds90/calcsteps/internal/config"
)

// RootOptions holds global flags and the calculator built from them.
type RootOptions struct {
	Format     string
	ConfigPath string
	Verbose    bool

	calc *calcsteps.Calculator
	out  *formatter
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "calcsteps",
		Short:         "Step-by-step derivatives and limits",
		Long:          "Differentiate expressions, evaluate limits and generate exercises, showing every step.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return commandError(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return commandError("load config", err)
			}
			if opts.Verbose {
				cfg.Log.Level = "debug"
			}
			logger := cfg.Log.Logger(cmd.ErrOrStderr())
			opts.calc = calcsteps.New(calcsteps.WithConfig(cfg), calcsteps.WithLogger(logger))
			opts.out = &formatter{format: opts.Format, w: cmd.OutOrStdout()}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return commandError("flags", err) })
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $"+config.EnvPath+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(
		newDiffCommand(opts),
		newImplicitCommand(opts),
		newLimitCommand(opts),
		newExerciseCommand(opts),
		newSimplifyCommand(opts),
	)
	return cmd
}

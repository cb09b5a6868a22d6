// cmd/blockpatch/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bethropolis/blockpatch/internal/app"
	"github.com/bethropolis/blockpatch/internal/config"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// usageError marks bad invocations so they exit with app.ExitUsage.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// cli carries what the persistent pre-run resolved for the subcommands.
type cli struct {
	flags     config.Flags
	cfg       *config.Config
	logCloser io.Closer
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: c.flags.ConfigFilePath,
		EnvFile:    config.DefaultEnvFileName,
		Flags:      &c.flags,
	})
	if err != nil {
		return usageError{fmt.Errorf("loading configuration: %w", err)}
	}
	closer, err := logger.Init(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	c.cfg = cfg
	c.logCloser = closer

	for _, w := range cfg.Warnings() {
		logger.Warnf("%s", w)
	}
	if cfg.Source != "" {
		logger.Debugf("Configuration loaded from %s", cfg.Source)
	}
	return nil
}

func (c *cli) close() {
	if c.logCloser != nil {
		c.logCloser.Close()
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Splice replacement blocks into a source file at literal markers",
		Long: `blockpatch locates blocks in a file by a literal start marker plus an end
rule (a literal end marker, balanced braces, or a line range) and replaces
them. A plan of stages is applied all-or-nothing: the file is written once,
and only if every stage succeeded.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	c.flags.DefineFlags(root.PersistentFlags())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		newRunCmd(c, false),
		newRunCmd(c, true),
		newLocateCmd(c),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(c *cli, dryRun bool) *cobra.Command {
	use, short := "apply <plan> [target]", "Apply a plan and write the target once every stage succeeds"
	if dryRun {
		use, short = "check <plan> [target]", "Run a plan without writing and print the unified diff"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{
				PlanPath: args[0],
				DryRun:   dryRun,
				Config:   c.cfg,
				Out:      cmd.OutOrStdout(),
				Report:   cmd.ErrOrStderr(),
			}
			if len(args) == 2 {
				opts.Target = args[1]
			}
			a, err := app.NewApp(opts)
			if err != nil {
				return err
			}
			res, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Changed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: unchanged\n", res.Target)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, version)
		},
	}
}

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return app.ExitUsage
	}
	return app.ExitCode(err)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{}
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return exitCode(err)
	}
	return app.ExitOK
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/logger"
)

// modulePackage is the interception module's package within the source tree.
const modulePackage = "./cmd/libinstrack"

// errToolchainMissing is returned when the module cannot be built here.
var errToolchainMissing = errors.New("build toolchain not found")

// setupCommand prepares the instrack home and builds the interception module.
type setupCommand struct {
	opts      *globalOptions
	source    string
	skipBuild bool
	out       io.Writer
	errOut    io.Writer
}

func newSetupCommand(opts *globalOptions) *cobra.Command {
	c := &setupCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the instrack home and build the interception module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			c.errOut = cmd.ErrOrStderr()
			return c.Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&c.source, "source", ".", "instrack source checkout to build from")
	cmd.Flags().BoolVar(&c.skipBuild, "skip-build", false, "only create directories")
	return cmd
}

// Execute runs the setup command.
func (c *setupCommand) Execute(ctx context.Context) error {
	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.ReportsDir(), cfg.LibDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	fmt.Fprintf(c.out, "Created %s\n", cfg.ReportsDir())

	if c.skipBuild {
		fmt.Fprintln(c.out, "Skipping module build")
		return nil
	}

	if err := c.build(ctx, cfg, log); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Built %s\n", cfg.Library())
	return nil
}

// build compiles the interception module as a shared object.
func (c *setupCommand) build(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	goBin, err := exec.LookPath("go")
	if err != nil {
		return fmt.Errorf("%w: go", errToolchainMissing)
	}
	compiler := os.Getenv("CC")
	if compiler == "" {
		compiler = "cc"
	}
	if _, err := exec.LookPath(compiler); err != nil {
		return fmt.Errorf("%w: C compiler %s", errToolchainMissing, compiler)
	}

	source, err := filepath.Abs(c.source)
	if err != nil {
		return fmt.Errorf("invalid source directory: %w", err)
	}
	if _, err := os.Stat(filepath.Join(source, modulePackage)); err != nil {
		return fmt.Errorf("interception module source not found in %s: %w", source, err)
	}

	// #nosec G204: arguments are fixed apart from trusted config paths
	cmd := exec.CommandContext(ctx, goBin, "build", "-buildmode=c-shared", "-o", cfg.Library(), modulePackage) // nolint:gosec
	cmd.Dir = source
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	cmd.Stdout = c.out
	cmd.Stderr = c.errOut

	log.Info("building interception module", "source", source, "output", cfg.Library())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build interception module: %w", err)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/session"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	verbose    bool
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "instrack",
		Short: "Track the files a command touches",
		Long: `instrack runs a command with an interception module preloaded and records
every file the command and its children open, create, remove or rename.
Results are grouped into sessions named by an identifier.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSetupCommand(opts),
		newTrackCommand(opts),
		newReportCommand(opts),
		newSessionCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// load reads the configuration and builds the CLI logger.
func (o *globalOptions) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.NewLoader(o.configPath).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if o.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Level:  level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})
	return cfg, log, nil
}

// openCatalog opens the session catalog. Callers close it as soon as they
// are done so concurrent instrack invocations are not locked out.
func openCatalog(cfg *config.Config, log logger.Logger) (session.Manager, error) {
	mgr, err := session.New(session.Config{DBPath: cfg.Catalog()}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open session catalog: %w", err)
	}
	return mgr, nil
}

// closeCatalog closes mgr, logging failures.
func closeCatalog(mgr session.Manager, log logger.Logger) {
	if err := mgr.Close(); err != nil {
		log.Error("failed to close session catalog", "error", err)
	}
}

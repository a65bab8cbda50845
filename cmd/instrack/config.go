package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/instrack/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	opts   *globalOptions
	format string
	force  bool
	output string
	out    io.Writer
}

func newConfigCommand(opts *globalOptions) *cobra.Command {
	c := &configCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.runShow()
		},
	}
	show.Flags().StringVarP(&c.format, "format", "f", "yaml", "output format (yaml, json)")

	path := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.runPath()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.runInit()
		},
	}
	initCmd.Flags().BoolVar(&c.force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVarP(&c.output, "output", "o", "", "output path (default: ~/.config/instrack/config.yaml)")

	cmd.AddCommand(show, path, initCmd)
	return cmd
}

// runShow displays the current configuration.
func (c *configCommand) runShow() error {
	loader := config.NewLoader(c.opts.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch c.format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(c.out, string(data))
		return nil
	case "yaml", "":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(c.out, "# Current Configuration")
		fmt.Fprintln(c.out, "# Source:", loader.Source())
		fmt.Fprintln(c.out)
		fmt.Fprint(c.out, string(data))
		return nil
	default:
		return fmt.Errorf("unknown format %q: must be yaml or json", c.format)
	}
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	paths := config.SearchPaths()
	if c.opts.configPath != "" {
		paths = []string{c.opts.configPath}
	}

	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists)
	}
	return nil
}

// runInit writes the default configuration.
func (c *configCommand) runInit() error {
	outputPath := c.output
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(outputPath); err == nil && !c.force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", outputPath)
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Wrote default configuration to %s\n", outputPath)
	return nil
}

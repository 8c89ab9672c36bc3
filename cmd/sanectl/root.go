package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/sanenet/internal/config"
	"github.com/muurk/sanenet/internal/logging"
	"github.com/muurk/sanenet/internal/session"
	"github.com/muurk/sanenet/internal/ui"
	"github.com/muurk/sanenet/internal/version"
)

// app carries the global flags and the loaded registry to every command
type app struct {
	host       string
	logLevel   string
	timeout    time.Duration
	clientName string
	configPath string
	plain      bool

	registry *config.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sanectl",
		Short: "SANE network daemon client",
		Long: `A client for the SANE network daemon (saned).

Discovers saned hosts on the local network, lists the scanners they export
and shows the option descriptors of each scanner.

If no command is specified, the interactive browser will launch automatically.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runBrowse,
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.host, "host", "H", "", "saned host: saved nickname, host or host:port (default: saved default, then localhost)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); also "+logging.LogLevelEnvVar)
	flags.DurationVar(&a.timeout, "timeout", session.DefaultIOTimeout, "Timeout for each request to saned")
	flags.StringVar(&a.clientName, "client-name", "", "Name this client reports to saned")
	flags.StringVar(&a.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/sanenet/config.yaml)")
	flags.BoolVar(&a.plain, "plain", false, "Plain output without colors or boxes")

	rootCmd.AddCommand(
		newScanCmd(a),
		newDevicesCmd(a),
		newOptionsCmd(a),
		newProbeCmd(a),
		newBrowseCmd(a),
		newHostsCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads the registry and starts logging before any command runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.configPath != "" {
		a.registry, err = config.LoadFrom(a.configPath)
	} else {
		a.registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// flag, then environment, then the saved preference
	level := a.logLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		level = a.registry.Preferences.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	if !cmd.Flags().Changed("timeout") {
		if t := a.registry.Preferences.IOTimeoutDuration(); t > 0 {
			a.timeout = t
		}
	}
	return nil
}

// sessionOptions merges the saved preferences with the global flags
func (a *app) sessionOptions() session.Options {
	opts := session.DefaultOptions()
	prefs := a.registry.Preferences
	if prefs.ClientName != "" {
		opts.ClientName = prefs.ClientName
	}
	if t := prefs.DialTimeoutDuration(); t > 0 {
		opts.DialTimeout = t
	}
	if a.clientName != "" {
		opts.ClientName = a.clientName
	}
	opts.IOTimeout = a.timeout
	return opts
}

// target resolves --host to an address and, for saved hosts, its nickname
func (a *app) target() (address, nickname string) {
	address, nickname = a.registry.Resolve(a.host)
	return session.NormalizeAddress(address), nickname
}

// saveRegistry writes the registry back to where it was loaded from
func (a *app) saveRegistry() error {
	if a.configPath != "" {
		return a.registry.SaveTo(a.configPath)
	}
	return config.SaveGlobal()
}

// printer writes to the command's output. Anything but a terminal stdout
// gets plain output.
func (a *app) printer(cmd *cobra.Command) *ui.Printer {
	out := cmd.OutOrStdout()
	if out == io.Writer(os.Stdout) {
		return ui.NewPrinter(nil).SetPlain(a.plain || !ui.IsTerminal())
	}
	return ui.NewPrinter(out).SetPlain(true)
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs neither config nor logging
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), version.Info())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sanectl %s\n", version.Full())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

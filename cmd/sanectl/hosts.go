package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/sanenet/internal/ui"
)

func newHostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage saved saned hosts",
		Long: `Manage the saned hosts saved in the config file.

A saved nickname can be passed to --host anywhere an address is accepted.
The default host is used when --host is not given.`,
	}
	cmd.AddCommand(
		newHostsListCmd(a),
		newHostsAddCmd(a),
		newHostsRemoveCmd(a),
		newHostsDefaultCmd(a),
	)
	return cmd
}

var hostListHeaders = []string{"NICKNAME", "ADDRESS", "LAST SEEN", "PROTOCOL", "DEVICES"}

func newHostsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved hosts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd)
			names := a.registry.Nicknames()
			if len(names) == 0 {
				p.PrintWarning("No saved hosts",
					ui.Detail{Key: "Hint", Value: "sanectl hosts add <nickname> <address>"},
					ui.Detail{Key: "Hint", Value: "sanectl scan --save"},
				)
				return nil
			}

			rows := make([][]string, len(names))
			for i, name := range names {
				h := a.registry.Hosts[name]
				nick := name
				if name == a.registry.DefaultHost {
					nick += " *"
				}
				lastSeen := "never"
				if !h.LastSeen.IsZero() {
					lastSeen = h.LastSeen.Local().Format(time.DateTime)
				}
				rows[i] = []string{nick, h.Address, lastSeen, h.ServerVersion, strconv.Itoa(len(h.Devices))}
			}
			p.PrintTable(hostListHeaders, rows, func(row int) bool {
				return a.registry.Hosts[names[row]].LastSeen.IsZero()
			})
			return nil
		},
	}
}

func newHostsAddCmd(a *app) *cobra.Command {
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "add <nickname> <address>",
		Short: "Save a host under a nickname",
		Example: `  sanectl hosts add office 192.168.1.20
  sanectl hosts add lab lab.example.com:7000 --default`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.registry.AddHost(args[0], args[1]); err != nil {
				return err
			}
			if makeDefault || len(a.registry.Hosts) == 1 {
				if err := a.registry.SetDefaultHost(args[0]); err != nil {
					return err
				}
			}
			if err := a.saveRegistry(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			details := []ui.Detail{
				{Key: "Nickname", Value: args[0]},
				{Key: "Address", Value: args[1]},
			}
			if a.registry.DefaultHost == args[0] {
				details = append(details, ui.Detail{Key: "Default", Value: "yes"})
			}
			a.printer(cmd).PrintSuccess("Host saved", details...)
			return nil
		},
	}
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default host")
	return cmd
}

func newHostsRemoveCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <nickname>",
		Aliases: []string{"rm"},
		Short:   "Forget a saved host",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			host := a.registry.GetHost(name)
			if host == nil {
				return fmt.Errorf("unknown host %q", name)
			}

			if !yes {
				warnings := []string{"Address " + host.Address + " and its cached device list will be forgotten"}
				if a.registry.DefaultHost == name {
					warnings = append(warnings, "This is the default host")
				}
				if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove "+name, warnings, "Remove this host?") {
					a.printer(cmd).Println("Cancelled.")
					return nil
				}
			}

			a.registry.RemoveHost(name)
			if err := a.saveRegistry(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			a.printer(cmd).PrintSuccess("Host removed", ui.Detail{Key: "Nickname", Value: name})
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newHostsDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "default [nickname]",
		Short: "Show or set the default host",
		Long:  `Without arguments, print the default host. With "" as nickname, clear it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd)
			if len(args) == 0 {
				if a.registry.DefaultHost == "" {
					p.Println("No default host")
					return nil
				}
				p.Println(a.registry.DefaultHost)
				return nil
			}

			if err := a.registry.SetDefaultHost(args[0]); err != nil {
				return err
			}
			if err := a.saveRegistry(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			p.PrintSuccess("Default host set", ui.Detail{Key: "Nickname", Value: args[0]})
			return nil
		},
	}
}

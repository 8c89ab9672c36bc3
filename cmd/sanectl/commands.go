package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sanenet/internal/discovery"
	"github.com/muurk/sanenet/internal/logging"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/session"
	"github.com/muurk/sanenet/internal/tui"
	"github.com/muurk/sanenet/internal/ui"
	"github.com/muurk/sanenet/internal/wire"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		timeout  time.Duration
		instance string
		save     bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover saned hosts on the network",
		Long: `Discover saned hosts using mDNS/DNS-SD.

saned itself does not announce; hosts running Avahi publish it as the
_sane-port._tcp service. Hosts on other network segments are not found;
use --host to reach them directly.`,
		Example: `  # Scan for 5 seconds (default)
  sanectl scan

  # Longer scan for slow networks
  sanectl scan --timeout 15s

  # Save every discovered host to the config file
  sanectl scan --save

  # Wait for one instance only and save it
  sanectl scan --instance "saned on office-pc" --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				if t := a.registry.Preferences.DiscoverTimeoutDuration(); t > 0 {
					timeout = t
				}
			}
			p := a.printer(cmd)
			if !asJSON {
				p.PrintHeader("Scanning for saned hosts", "scan",
					ui.Detail{Key: "Service", Value: discovery.ServiceType},
					ui.Detail{Key: "Timeout", Value: timeout.String()},
				)
			}

			scanner := discovery.NewScanner()
			scanner.Timeout = timeout
			var hosts []*discovery.Host
			var err error
			if instance != "" {
				var host *discovery.Host
				if host, err = scanner.FindHost(cmd.Context(), instance); err == nil {
					hosts = []*discovery.Host{host}
				}
			} else {
				hosts, err = scanner.Scan(cmd.Context())
			}
			if err != nil {
				p.PrintError("Scan failed", err, "Troubleshooting:\n  • Check that multicast is allowed on this interface\n  • UDP port 5353 must not be filtered")
				return fmt.Errorf("scan failed: %w", err)
			}

			if save {
				for _, h := range hosts {
					host, err := a.registry.AddHost(nicknameFor(h.Instance), h.Address())
					if err != nil {
						return err
					}
					host.Instance = h.Instance
				}
				if len(hosts) > 0 {
					if err := a.saveRegistry(); err != nil {
						return fmt.Errorf("failed to save config: %w", err)
					}
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), hostOutputs(hosts))
			}

			if len(hosts) == 0 {
				p.PrintWarning("No saned hosts found",
					ui.Detail{Key: "Hint", Value: "Ensure saned is published with Avahi, or use --host"},
					ui.Detail{Key: "Hint", Value: "Try increasing --timeout for slower networks"},
				)
				return nil
			}

			p.PrintTable(ui.HostHeaders, ui.HostRows(hosts), nil)
			p.Newline()
			details := []ui.Detail{{Key: "Hosts", Value: strconv.Itoa(len(hosts))}}
			if save {
				details = append(details, ui.Detail{Key: "Saved", Value: "yes"})
			}
			p.PrintSuccess("Scan complete", details...)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")
	cmd.Flags().StringVar(&instance, "instance", "", "Stop at the first announcement of this instance name")
	cmd.Flags().BoolVar(&save, "save", false, "Save discovered hosts to the config file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDevicesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices a saned host exports",
		Example: `  # Devices on the default host
  sanectl devices

  # Devices on a specific host, as JSON
  sanectl devices --host 192.168.1.20 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, nickname := a.target()
			p := a.printer(cmd)
			if !asJSON {
				p.PrintHeader("Listing devices", "devices", ui.Detail{Key: "Host", Value: addr})
			}

			list, err := session.FetchDevices(cmd.Context(), addr, a.sessionOptions())
			if err != nil {
				p.PrintError("Device listing failed", err, session.TroubleshootingHint(err))
				return fmt.Errorf("list devices on %s: %w", addr, err)
			}

			if nickname != "" {
				a.registry.RecordSession(nickname, protocol.FormatVersion(list.ServerVersion), deviceMetas(list.Devices))
				if err := a.saveRegistry(); err != nil {
					logging.Warn("Failed to update config", zap.Error(err))
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), devicesOutput{
					Host:          list.Addr,
					ServerVersion: protocol.FormatVersion(list.ServerVersion),
					Devices:       list.Devices,
				})
			}

			if len(list.Devices) == 0 {
				p.PrintWarning("No devices exported",
					ui.Detail{Key: "Host", Value: list.Addr},
					ui.Detail{Key: "Hint", Value: "Check the backends enabled in saned's dll.conf"},
				)
				return nil
			}

			p.PrintTable(ui.DeviceHeaders, ui.DeviceRows(list.Devices), nil)
			p.Newline()
			p.PrintSuccess("Devices listed",
				ui.Detail{Key: "Host", Value: list.Addr},
				ui.Detail{Key: "Protocol", Value: protocol.FormatVersion(list.ServerVersion)},
				ui.Detail{Key: "Devices", Value: strconv.Itoa(len(list.Devices))},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newOptionsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "options <device>",
		Short: "Show the option descriptors of a device",
		Long: `Open a device, read its option descriptors and close it again.

The device name is the NAME column of 'sanectl devices'. Devices protected
by saned.users report that authorization is required; this client does not
authorize.`,
		Example: `  sanectl options pixma:04A91736_0123 --host office
  sanectl options test:0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := a.target()
			dev := protocol.Device{Name: args[0]}
			p := a.printer(cmd)
			if !asJSON {
				p.PrintHeader("Reading option descriptors", "options",
					ui.Detail{Key: "Host", Value: addr},
					ui.Detail{Key: "Device", Value: dev.Name},
				)
			}

			options, err := session.FetchOptions(cmd.Context(), addr, dev, a.sessionOptions())
			var authErr *session.AuthRequiredError
			if errors.As(err, &authErr) {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), optionsOutput{
						Host:         addr,
						Device:       dev.Name,
						AuthRequired: authErr.Resource,
						Options:      []*protocol.OptionDescriptor{},
					})
				}
				p.PrintWarning("Device requires authorization",
					ui.Detail{Key: "Device", Value: dev.Name},
					ui.Detail{Key: "Resource", Value: authErr.Resource},
				)
				return nil
			}
			if err != nil {
				p.PrintError("Reading options failed", err, session.TroubleshootingHint(err))
				return fmt.Errorf("options of %s: %w", dev.Name, err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), optionsOutput{
					Host:    addr,
					Device:  dev.Name,
					Options: optionPointers(options),
				})
			}

			p.PrintTable(ui.OptionHeaders, ui.OptionRows(options), ui.OptionMuted(options))
			p.Newline()
			p.PrintSuccess("Options read",
				ui.Detail{Key: "Device", Value: dev.Name},
				ui.Detail{Key: "Descriptors", Value: strconv.Itoa(len(options))},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Launch the interactive browser",
		Long: `Browse saned hosts, their devices and option descriptors interactively.

The host list shows saved hosts and those found by an mDNS scan. With
--host the browser opens that host's device list directly.`,
		Args: cobra.NoArgs,
		RunE: a.runBrowse,
	}
}

func (a *app) runBrowse(cmd *cobra.Command, args []string) error {
	opts := a.sessionOptions()
	scanTimeout := a.registry.Preferences.DiscoverTimeoutDuration()

	cfg := tui.Config{
		Backend:        tui.SessionBackend{Session: opts, ScanTimeout: scanTimeout},
		ScanTimeout:    scanTimeout,
		RequestTimeout: opts.DialTimeout + 4*opts.IOTimeout,
	}
	for _, name := range a.registry.Nicknames() {
		cfg.Saved = append(cfg.Saved, tui.SavedHost{Nickname: name, Address: a.registry.Hosts[name].Address})
	}
	if a.host != "" {
		cfg.StartAddress, _ = a.target()
	}

	if err := tui.Run(cfg); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}

// probe steps, in order
const (
	stepConnect = iota
	stepInit
	stepList
	stepOpen
	stepOptions
	stepClose
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Run every command against a host and report each step",
		Long: `Run the full command sequence against a saned host:

  1. Connect
  2. Initialize the session
  3. List devices
  4. Open the first device
  5. Read its option descriptors
  6. Close it

Each step is reported as it completes, which narrows down where a
misbehaving daemon or network fails.`,
		Example: `  sanectl probe --host 192.168.1.20
  SANENET_LOG_LEVEL=debug sanectl probe --host office`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := a.target()
			p := a.printer(cmd)
			p.PrintHeader("Probing saned", "probe", ui.Detail{Key: "Host", Value: addr})

			progress := ui.NewProgress("Probe "+addr,
				"Connect", "Initialize", "List devices", "Open device", "Read options", "Close device")
			result, err := runProbe(cmd.Context(), addr, a.sessionOptions(), progress)
			p.PrintProgress(progress)
			p.Newline()

			if err != nil {
				p.PrintError("Probe failed", err, session.TroubleshootingHint(err))
				return fmt.Errorf("probe %s: %w", addr, err)
			}

			if len(result.options) > 0 {
				p.PrintTable(ui.OptionHeaders, ui.OptionRows(result.options), ui.OptionMuted(result.options))
				p.Newline()
			}

			details := []ui.Detail{
				{Key: "Host", Value: addr},
				{Key: "Protocol", Value: protocol.FormatVersion(result.version)},
				{Key: "Devices", Value: strconv.Itoa(len(result.devices))},
			}
			if result.device != nil {
				details = append(details, ui.Detail{Key: "Probed", Value: result.device.Name})
			}
			if result.authResource != "" {
				p.PrintWarning("Probe complete, device requires authorization",
					append(details, ui.Detail{Key: "Resource", Value: result.authResource})...)
				return nil
			}
			p.PrintSuccess("Probe complete", details...)
			return nil
		},
	}
}

type probeResult struct {
	version      uint32
	devices      []protocol.Device
	device       *protocol.Device
	authResource string
	options      []wire.Optional[protocol.OptionDescriptor]
}

// runProbe walks the command sequence, recording each step in progress
func runProbe(ctx context.Context, addr string, opts session.Options, progress *ui.Progress) (*probeResult, error) {
	result := &probeResult{}
	fail := func(step int, err error) (*probeResult, error) {
		progress.Fail(step, session.ShortErrorMessage(err))
		progress.SkipRemaining("")
		return result, err
	}

	progress.Start(stepConnect)
	s, err := session.Dial(ctx, addr, opts)
	if err != nil {
		return fail(stepConnect, err)
	}
	defer s.Close()
	progress.Complete(stepConnect, s.RemoteAddr())

	progress.Start(stepInit)
	result.version, err = s.Init()
	if err != nil {
		return fail(stepInit, err)
	}
	progress.Complete(stepInit, "protocol "+protocol.FormatVersion(result.version))

	progress.Start(stepList)
	result.devices, err = s.ListDevices()
	if err != nil {
		return fail(stepList, err)
	}
	progress.Complete(stepList, fmt.Sprintf("%d device(s)", len(result.devices)))
	if len(result.devices) == 0 {
		progress.SkipRemaining("no devices")
		return result, nil
	}

	result.device = &result.devices[0]
	progress.Start(stepOpen)
	open, err := s.OpenDevice(*result.device)
	if err != nil {
		return fail(stepOpen, err)
	}
	if resource, ok := open.AuthRequired(); ok {
		result.authResource = resource
		progress.Update(stepOpen, ui.StepSkipped, "authorization required")
		progress.SkipRemaining("not opened")
		return result, nil
	}
	h, _ := open.Handle()
	progress.Complete(stepOpen, fmt.Sprintf("handle %d", h))

	progress.Start(stepOptions)
	result.options, err = s.OptionDescriptors(h)
	if err != nil {
		return fail(stepOptions, err)
	}
	progress.Complete(stepOptions, fmt.Sprintf("%d descriptor(s)", len(result.options)))

	progress.Start(stepClose)
	if err := s.CloseDevice(h); err != nil {
		return fail(stepClose, err)
	}
	progress.Complete(stepClose, "")
	return result, nil
}

// Package ui renders sanectl output with Lipgloss.
//
// The components follow a "run once and exit" pattern:
//
//   - Header: command banner with the host and other parameters
//   - Progress: step list for multi-command exchanges such as a probe
//   - Result: success, warning and failure boxes with troubleshooting tips
//   - Tables: device lists, option descriptors and discovered hosts
//
// Printer ties them together and falls back to plain lines and
// tab-separated tables when stdout is not a terminal:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Devices", "sanectl devices", ui.Detail{Key: "Host", Value: addr})
//	p.PrintTable(ui.DeviceHeaders, ui.DeviceRows(devices), nil)
//
// # Logging Integration
//
// zap logging is controlled by SANENET_LOG_LEVEL or --log-level and is
// silent by default, so the rendered output is not interleaved with logs.
package ui

// Package config manages the sanenet user configuration file.
//
// The file records saned hosts under short nicknames, the device list each
// host returned last time, and client preferences such as timeouts and the
// client name sent during Init.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/sanenet/config.yaml or $HOME/.config/sanenet/config.yaml
//   - macOS: $HOME/.config/sanenet/config.yaml
//   - Windows: %LOCALAPPDATA%\sanenet\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := registry.AddHost("office", "192.168.1.20"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// Writes go through a temporary file and a rename under a mutex.
package config

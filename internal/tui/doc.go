// Package tui implements the interactive saned browser.
//
// The browser starts on a host list fed by an mDNS scan and the saved hosts
// of the config registry. Selecting a host lists its devices; selecting a
// device opens it and shows its option descriptors. Every network request
// runs as a tea.Cmd through a Backend, so the model itself never blocks.
package tui

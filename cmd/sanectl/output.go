package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muurk/sanenet/internal/config"
	"github.com/muurk/sanenet/internal/discovery"
	"github.com/muurk/sanenet/internal/protocol"
	"github.com/muurk/sanenet/internal/wire"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

type devicesOutput struct {
	Host          string            `json:"host"`
	ServerVersion string            `json:"server_version"`
	Devices       []protocol.Device `json:"devices"`
}

// optionsOutput lists descriptors by index; absent entries are null
type optionsOutput struct {
	Host         string                       `json:"host"`
	Device       string                       `json:"device"`
	AuthRequired string                       `json:"auth_required,omitempty"`
	Options      []*protocol.OptionDescriptor `json:"options"`
}

type hostOutput struct {
	Instance string            `json:"instance"`
	Hostname string            `json:"hostname"`
	Address  string            `json:"address"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func optionPointers(options []wire.Optional[protocol.OptionDescriptor]) []*protocol.OptionDescriptor {
	out := make([]*protocol.OptionDescriptor, len(options))
	for i, o := range options {
		if d, ok := o.Get(); ok {
			out[i] = &d
		}
	}
	return out
}

func hostOutputs(hosts []*discovery.Host) []hostOutput {
	out := make([]hostOutput, len(hosts))
	for i, h := range hosts {
		out[i] = hostOutput{
			Instance: h.Instance,
			Hostname: h.Hostname,
			Address:  h.Address(),
			Metadata: h.Metadata,
		}
	}
	return out
}

// deviceMetas converts a device list for the registry cache
func deviceMetas(devices []protocol.Device) []config.DeviceMeta {
	metas := make([]config.DeviceMeta, len(devices))
	for i, d := range devices {
		metas[i] = config.DeviceMeta{Name: d.Name, Vendor: d.Vendor, Model: d.Model, Type: d.Kind}
	}
	return metas
}

// nicknameFor derives a valid registry nickname from an mDNS instance name
func nicknameFor(instance string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(instance) {
		if r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimRight(b.String(), "-")
	if name == "" {
		return "saned"
	}
	return name
}

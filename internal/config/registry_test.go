package config

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux only")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(xdg, "sanenet"); configDir != want {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	configDir, err = GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() without XDG_CONFIG_HOME error = %v", err)
	}
	if !strings.HasSuffix(configDir, filepath.Join(".config", "sanenet")) {
		t.Errorf("GetConfigDir() = %v, want ~/.config/sanenet", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != CurrentVersion {
		t.Errorf("NewRegistry().Version = %v, want %v", reg.Version, CurrentVersion)
	}
	if reg.Hosts == nil {
		t.Error("NewRegistry().Hosts should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.ClientName != "sanenet" {
		t.Errorf("ClientName = %q, want sanenet", reg.Preferences.ClientName)
	}
	if got := reg.Preferences.IOTimeoutDuration(); got != 30*time.Second {
		t.Errorf("IOTimeoutDuration() = %v, want 30s", got)
	}
}

func TestPreferencesDurations(t *testing.T) {
	p := &Preferences{DialTimeout: 3, IOTimeout: 0, DiscoverTimeout: -1}

	if got := p.DialTimeoutDuration(); got != 3*time.Second {
		t.Errorf("DialTimeoutDuration() = %v, want 3s", got)
	}
	if got := p.IOTimeoutDuration(); got != 0 {
		t.Errorf("IOTimeoutDuration() = %v, want 0", got)
	}
	if got := p.DiscoverTimeoutDuration(); got != 0 {
		t.Errorf("DiscoverTimeoutDuration() = %v, want 0", got)
	}
}

func TestRegistryAddHost(t *testing.T) {
	reg := NewRegistry()

	host, err := reg.AddHost("office", " 192.168.1.20 ")
	if err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	if host.Address != "192.168.1.20" {
		t.Errorf("Address = %q, want trimmed address", host.Address)
	}

	reg.RecordSession("office", "1.0.3", []DeviceMeta{{Name: "net:x"}})

	// Same address keeps the cached devices
	if _, err := reg.AddHost("office", "192.168.1.20"); err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	if len(reg.GetHost("office").Devices) != 1 {
		t.Error("re-adding the same address dropped cached devices")
	}

	// A new address invalidates them
	if _, err := reg.AddHost("office", "192.168.1.21"); err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	if got := reg.GetHost("office"); got.Devices != nil || got.ServerVersion != "" {
		t.Errorf("changing the address kept stale data: %+v", got)
	}

	if _, err := reg.AddHost("office", "  "); err == nil {
		t.Error("AddHost() with empty address succeeded")
	}
}

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		nickname string
		wantErr  bool
	}{
		{"office", false},
		{"lab-2", false},
		{"", true},
		{"my scanner", true},
		{"host:6566", true},
		{"scan.local", true},
		{"a/b", true},
		{"[::1]", true},
	}

	for _, tt := range tests {
		t.Run(tt.nickname, func(t *testing.T) {
			err := ValidateNickname(tt.nickname)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNickname(%q) error = %v, wantErr %v", tt.nickname, err, tt.wantErr)
			}
		})
	}
}

func TestRegistryEnsureHost(t *testing.T) {
	reg := &Registry{}

	h1 := reg.EnsureHost("office")
	if h1 == nil {
		t.Fatal("EnsureHost() returned nil")
	}
	if h2 := reg.EnsureHost("office"); h1 != h2 {
		t.Error("EnsureHost() should return same instance for same nickname")
	}
	if h3 := reg.EnsureHost("lab"); h1 == h3 {
		t.Error("EnsureHost() should create new instance for different nickname")
	}
}

func TestRegistryRemoveHost(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.AddHost("office", "192.168.1.20"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDefaultHost("office"); err != nil {
		t.Fatal(err)
	}

	if !reg.RemoveHost("office") {
		t.Error("RemoveHost() = false for existing host")
	}
	if reg.DefaultHost != "" {
		t.Errorf("DefaultHost = %q after removing it", reg.DefaultHost)
	}
	if reg.RemoveHost("office") {
		t.Error("RemoveHost() = true for missing host")
	}
}

func TestRegistrySetDefaultHost(t *testing.T) {
	reg := NewRegistry()
	if err := reg.SetDefaultHost("nowhere"); err == nil {
		t.Error("SetDefaultHost() accepted an unknown host")
	}
	if err := reg.SetDefaultHost(""); err != nil {
		t.Errorf("SetDefaultHost(\"\") error = %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.AddHost("office", "192.168.1.20:6566"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		defaultHost  string
		in           string
		wantAddress  string
		wantNickname string
	}{
		{"nickname", "", "office", "192.168.1.20:6566", "office"},
		{"literal address", "", "10.0.0.5", "10.0.0.5", ""},
		{"empty without default", "", "", "", ""},
		{"empty with default", "office", "", "192.168.1.20:6566", "office"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg.DefaultHost = tt.defaultHost
			address, nickname := reg.Resolve(tt.in)
			if address != tt.wantAddress || nickname != tt.wantNickname {
				t.Errorf("Resolve(%q) = (%q, %q), want (%q, %q)",
					tt.in, address, nickname, tt.wantAddress, tt.wantNickname)
			}
		})
	}
}

func TestRegistryRecordSession(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RecordSession("office", "1.0.3", []DeviceMeta{{Name: "net:x", Vendor: "Acme"}})
	after := time.Now()

	host := reg.GetHost("office")
	if host == nil {
		t.Fatal("host should exist after RecordSession()")
	}
	if host.ServerVersion != "1.0.3" {
		t.Errorf("ServerVersion = %q", host.ServerVersion)
	}
	if host.LastSeen.Before(before) || host.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", host.LastSeen, before, after)
	}
}

func TestRegistryNicknames(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"lab", "attic", "office"} {
		reg.EnsureHost(n)
	}
	want := []string{"attic", "lab", "office"}
	if got := reg.Nicknames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Nicknames() = %v, want %v", got, want)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	if _, err := reg.AddHost("office", "192.168.1.20"); err != nil {
		t.Fatal(err)
	}
	reg.RecordSession("office", "1.0.3", []DeviceMeta{
		{Name: "net:host:x100", Vendor: "Acme", Model: "X100", Type: "flatbed scanner"},
	})
	if err := reg.SetDefaultHost("office"); err != nil {
		t.Fatal(err)
	}
	reg.Preferences.ClientName = "tester"

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after save")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.DefaultHost != "office" {
		t.Errorf("DefaultHost = %q", loaded.DefaultHost)
	}
	host := loaded.GetHost("office")
	if host == nil {
		t.Fatal("office missing after reload")
	}
	if host.Address != "192.168.1.20" || host.ServerVersion != "1.0.3" {
		t.Errorf("host = %+v", host)
	}
	if !reflect.DeepEqual(host.Devices, reg.GetHost("office").Devices) {
		t.Errorf("Devices = %+v, want %+v", host.Devices, reg.GetHost("office").Devices)
	}
	if !host.LastSeen.Equal(reg.GetHost("office").LastSeen) {
		t.Errorf("LastSeen = %v, want %v", host.LastSeen, reg.GetHost("office").LastSeen)
	}
	if loaded.Preferences.ClientName != "tester" {
		t.Errorf("ClientName = %q", loaded.Preferences.ClientName)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	reg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if reg.Version != CurrentVersion || reg.Hosts == nil || reg.Preferences == nil {
		t.Errorf("LoadFrom() on missing file = %+v, want defaults", reg)
	}
}

func TestLoadFromFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if reg.Hosts == nil {
		t.Error("Hosts not initialized")
	}
	if !reflect.DeepEqual(reg.Preferences, DefaultPreferences()) {
		t.Errorf("Preferences = %+v, want defaults", reg.Preferences)
	}
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unsupported version", "version: 2\n"},
		{"invalid yaml", "version: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("LoadFrom() succeeded, want error")
			}
		})
	}
}

func BenchmarkResolve(b *testing.B) {
	reg := NewRegistry()
	for _, n := range []string{"office", "lab", "attic"} {
		if _, err := reg.AddHost(n, n+"-pc"); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Resolve("lab")
	}
}

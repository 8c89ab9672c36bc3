package logging

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestLogCommand(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogCommand("scanhost:6566", "list devices", 5*time.Millisecond, nil, zap.Int("devices", 2))
	LogCommand("scanhost:6566", "open device", time.Millisecond, errors.New("DEVICE_BUSY"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("success entry level = %v, want info", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["command"] != "list devices" || fields["devices"] != int64(2) {
		t.Errorf("success entry fields = %v", fields)
	}

	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failure entry level = %v, want warn", entries[1].Level)
	}
	if entries[1].ContextMap()["error"] != "DEVICE_BUSY" {
		t.Errorf("failure entry fields = %v", entries[1].ContextMap())
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogRawBytes("write", []byte{0x00, 0x00, 0x00, 0x01, 'A'})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "0000000141" {
		t.Errorf("hex = %v, want 0000000141", fields["hex"])
	}
	if fields["ascii"] != "....A" {
		t.Errorf("ascii = %v, want ....A", fields["ascii"])
	}
}

func TestDumpsTruncate(t *testing.T) {
	data := make([]byte, maxDumpBytes+10)
	if got := hexDump(data); !strings.HasSuffix(got, "...") || len(got) != maxDumpBytes*2+3 {
		t.Errorf("hexDump() length = %d", len(got))
	}
	if got := asciiDump(data); len(got) != maxDumpBytes {
		t.Errorf("asciiDump() length = %d, want %d", len(got), maxDumpBytes)
	}
}

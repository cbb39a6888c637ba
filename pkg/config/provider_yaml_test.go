package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderFullConfig(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  intake_dir: /var/lib/mindwheel/intake
  sampling_rate: 250
  channels: 4
  poll_interval_ms: 500
  snippet_deadline_ms: 2000
  telemetry: /var/log/mindwheel/telemetry.log
models:
  filter_selector: /etc/mindwheel/selector.bin
  action_classifier: /etc/mindwheel/classifier.bin
actuator:
  serial_device: /dev/ttyUSB0
  baud: 115200
status:
  listen_addr: 127.0.0.1:8090
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Pipeline.IntakeDir != "/var/lib/mindwheel/intake" {
		t.Errorf("IntakeDir = %q", cfg.Pipeline.IntakeDir)
	}
	if cfg.Pipeline.SamplingRate != 250 || cfg.Pipeline.Channels != 4 {
		t.Errorf("rate/channels = %v/%d", cfg.Pipeline.SamplingRate, cfg.Pipeline.Channels)
	}
	if cfg.Pipeline.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.Pipeline.PollInterval)
	}
	if cfg.Pipeline.SnippetDeadline != 2*time.Second {
		t.Errorf("SnippetDeadline = %v, want 2s", cfg.Pipeline.SnippetDeadline)
	}
	if cfg.Pipeline.Telemetry != "/var/log/mindwheel/telemetry.log" {
		t.Errorf("Telemetry = %q", cfg.Pipeline.Telemetry)
	}
	if cfg.Models.FilterSelector != "/etc/mindwheel/selector.bin" || cfg.Models.ActionClassifier != "/etc/mindwheel/classifier.bin" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.Actuator == nil || cfg.Actuator.SerialDevice != "/dev/ttyUSB0" || cfg.Actuator.Baud != 115200 {
		t.Errorf("actuator = %+v", cfg.Actuator)
	}
	if cfg.Status == nil || cfg.Status.ListenAddr != "127.0.0.1:8090" {
		t.Errorf("status = %+v", cfg.Status)
	}
}

func TestYAMLProviderDefaults(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  intake_dir: /tmp/intake
models:
  filter_selector: selector.bin
  action_classifier: classifier.bin
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.SamplingRate != DefaultSamplingRate {
		t.Errorf("SamplingRate = %v, want default %v", cfg.Pipeline.SamplingRate, DefaultSamplingRate)
	}
	if cfg.Pipeline.Channels != DefaultChannels {
		t.Errorf("Channels = %d, want default %d", cfg.Pipeline.Channels, DefaultChannels)
	}
	if cfg.Pipeline.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.Pipeline.PollInterval, DefaultPollInterval)
	}
	if cfg.Pipeline.SnippetDeadline != DefaultSnippetDeadline {
		t.Errorf("SnippetDeadline = %v, want default %v", cfg.Pipeline.SnippetDeadline, DefaultSnippetDeadline)
	}
	if cfg.Pipeline.Telemetry != DefaultTelemetry {
		t.Errorf("Telemetry = %q, want default %q", cfg.Pipeline.Telemetry, DefaultTelemetry)
	}
	if cfg.Actuator != nil || cfg.Status != nil {
		t.Error("optional sections should stay nil when absent")
	}
}

func TestYAMLProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing intake dir", `
models:
  filter_selector: a.bin
  action_classifier: b.bin
`},
		{"missing models", `
pipeline:
  intake_dir: /tmp/intake
`},
		{"negative sampling rate", `
pipeline:
  intake_dir: /tmp/intake
  sampling_rate: -1
models:
  filter_selector: a.bin
  action_classifier: b.bin
`},
		{"actuator without device", `
pipeline:
  intake_dir: /tmp/intake
models:
  filter_selector: a.bin
  action_classifier: b.bin
actuator:
  baud: 9600
`},
		{"status without address", `
pipeline:
  intake_dir: /tmp/intake
models:
  filter_selector: a.bin
  action_classifier: b.bin
status: {}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
				t.Errorf("invalid config accepted: %s", tt.name)
			}
		})
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "gone.yaml")).LoadConfig(); err == nil {
		t.Error("missing config file should fail")
	}
}

func TestYAMLProviderUnparsableFile(t *testing.T) {
	path := writeConfig(t, "pipeline: [not: a: mapping\n")
	if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
		t.Error("unparsable YAML should fail")
	}
}

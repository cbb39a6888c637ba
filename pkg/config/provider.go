// Package config provides configuration management for mindwheel with
// support for YAML file and SQLite database backends behind a common
// provider interface.
package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration backends.
type ConfigProvider interface {
	LoadConfig() (*ConfigData, error)
}

// ConfigData is the complete runtime configuration.
type ConfigData struct {
	Pipeline PipelineData
	Models   ModelsData
	Actuator *ActuatorData
	Status   *StatusData
}

// PipelineData configures the classification loop.
type PipelineData struct {
	// IntakeDir is the shared directory the acquisition layer writes
	// snippet files into.
	IntakeDir string
	// SamplingRate is the acquisition rate in Hz. It is fixed by the
	// acquisition contract, never estimated from snippet timestamps.
	SamplingRate float64
	// Channels is the expected per-sample channel count; snippets with
	// any other count fail fast.
	Channels int
	// PollInterval is the sleep between empty polls.
	PollInterval time.Duration
	// SnippetDeadline bounds per-snippet processing; 0 disables it.
	SnippetDeadline time.Duration
	// Telemetry selects the telemetry stream: "stdout", "stderr", or a
	// file path to append to.
	Telemetry string
}

// ModelsData locates the two persisted classifier artifacts.
type ModelsData struct {
	FilterSelector   string
	ActionClassifier string
}

// ActuatorData configures the optional serial actuator sink.
type ActuatorData struct {
	SerialDevice string
	Baud         int
}

// StatusData configures the optional HTTP status endpoint.
type StatusData struct {
	ListenAddr string
}

// Defaults matching the acquisition contract.
const (
	DefaultSamplingRate    = 256.0
	DefaultChannels        = 5
	DefaultPollInterval    = time.Second
	DefaultSnippetDeadline = 10 * time.Second
	DefaultTelemetry       = "stdout"
)

// applyDefaults fills unset pipeline fields.
func (c *ConfigData) applyDefaults() {
	if c.Pipeline.SamplingRate == 0 {
		c.Pipeline.SamplingRate = DefaultSamplingRate
	}
	if c.Pipeline.Channels == 0 {
		c.Pipeline.Channels = DefaultChannels
	}
	if c.Pipeline.PollInterval == 0 {
		c.Pipeline.PollInterval = DefaultPollInterval
	}
	if c.Pipeline.SnippetDeadline == 0 {
		c.Pipeline.SnippetDeadline = DefaultSnippetDeadline
	}
	if c.Pipeline.Telemetry == "" {
		c.Pipeline.Telemetry = DefaultTelemetry
	}
}

// validate rejects configurations the pipeline cannot run with.
func (c *ConfigData) validate() error {
	if c.Pipeline.IntakeDir == "" {
		return fmt.Errorf("pipeline.intake_dir must be set")
	}
	if c.Pipeline.SamplingRate <= 0 {
		return fmt.Errorf("pipeline.sampling_rate must be positive")
	}
	if c.Pipeline.Channels <= 0 {
		return fmt.Errorf("pipeline.channels must be positive")
	}
	if c.Models.FilterSelector == "" || c.Models.ActionClassifier == "" {
		return fmt.Errorf("models.filter_selector and models.action_classifier must both be set")
	}
	if c.Actuator != nil && c.Actuator.SerialDevice == "" {
		return fmt.Errorf("actuator.serial_device must be set when the actuator section is present")
	}
	if c.Status != nil && c.Status.ListenAddr == "" {
		return fmt.Errorf("status.listen_addr must be set when the status section is present")
	}
	return nil
}

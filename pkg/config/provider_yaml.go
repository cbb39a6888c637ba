package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{filename: filename}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into a temporary struct with YAML tags, then convert to the
	// internal format.
	var yamlConfig struct {
		Pipeline struct {
			IntakeDir         string  `yaml:"intake_dir"`
			SamplingRate      float64 `yaml:"sampling_rate,omitempty"`
			Channels          int     `yaml:"channels,omitempty"`
			PollIntervalMS    int     `yaml:"poll_interval_ms,omitempty"`
			SnippetDeadlineMS int     `yaml:"snippet_deadline_ms,omitempty"`
			Telemetry         string  `yaml:"telemetry,omitempty"`
		} `yaml:"pipeline"`
		Models struct {
			FilterSelector   string `yaml:"filter_selector"`
			ActionClassifier string `yaml:"action_classifier"`
		} `yaml:"models"`
		Actuator *struct {
			SerialDevice string `yaml:"serial_device"`
			Baud         int    `yaml:"baud,omitempty"`
		} `yaml:"actuator,omitempty"`
		Status *struct {
			ListenAddr string `yaml:"listen_addr"`
		} `yaml:"status,omitempty"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	config := &ConfigData{
		Pipeline: PipelineData{
			IntakeDir:       yamlConfig.Pipeline.IntakeDir,
			SamplingRate:    yamlConfig.Pipeline.SamplingRate,
			Channels:        yamlConfig.Pipeline.Channels,
			PollInterval:    time.Duration(yamlConfig.Pipeline.PollIntervalMS) * time.Millisecond,
			SnippetDeadline: time.Duration(yamlConfig.Pipeline.SnippetDeadlineMS) * time.Millisecond,
			Telemetry:       yamlConfig.Pipeline.Telemetry,
		},
		Models: ModelsData{
			FilterSelector:   yamlConfig.Models.FilterSelector,
			ActionClassifier: yamlConfig.Models.ActionClassifier,
		},
	}
	if yamlConfig.Actuator != nil {
		config.Actuator = &ActuatorData{
			SerialDevice: yamlConfig.Actuator.SerialDevice,
			Baud:         yamlConfig.Actuator.Baud,
		}
	}
	if yamlConfig.Status != nil {
		config.Status = &StatusData{
			ListenAddr: yamlConfig.Status.ListenAddr,
		}
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", y.filename, err)
	}
	return config, nil
}

// Package scenario loads YAML simulation scenarios for the CLI.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one Torpor Sloth simulation run.
type Scenario struct {
	// Name identifies the run in logs.
	Name string `yaml:"name"`

	// SampleRate is the audio sample rate in Hz. Defaults to 44100.
	SampleRate float64 `yaml:"sample_rate,omitempty"`

	// Seconds is the simulated duration. Defaults to 10.
	Seconds float64 `yaml:"seconds,omitempty"`

	// ControlVoltage is written to the CV node, clamped to the rails.
	ControlVoltage float64 `yaml:"control_voltage"`

	// KnobPosition is the variable-resistor fraction in [0, 1].
	KnobPosition float64 `yaml:"knob_position"`

	// Output is the CSV log path. Defaults to "sloth.csv".
	Output string `yaml:"output,omitempty"`

	// Decimate keeps every Nth sample in the log. Defaults to 1.
	Decimate int `yaml:"decimate,omitempty"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}

	s.applyDefaults()
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.SampleRate == 0 {
		s.SampleRate = 44100
	}
	if s.Seconds == 0 {
		s.Seconds = 10
	}
	if s.Output == "" {
		s.Output = "sloth.csv"
	}
	if s.Decimate == 0 {
		s.Decimate = 1
	}
}

func (s *Scenario) validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %g", s.SampleRate)
	}
	if s.Seconds <= 0 {
		return fmt.Errorf("seconds must be positive, got %g", s.Seconds)
	}
	if s.Decimate < 1 {
		return fmt.Errorf("decimate must be >= 1, got %d", s.Decimate)
	}
	return nil
}

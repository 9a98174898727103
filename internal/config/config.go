package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model struct {
		Path         string `yaml:"path"`
		CmvnPath     string `yaml:"cmvn_path"`
		TokensPath   string `yaml:"tokens_path"`
		SampleRateHz int    `yaml:"sample_rate_hz"`
	} `yaml:"model"`

	Vad struct {
		Enabled    bool          `yaml:"enabled"`
		Threshold  float64       `yaml:"threshold"`
		MinSpeech  time.Duration `yaml:"min_speech"`
		MaxSilence time.Duration `yaml:"max_silence"`
		Padding    time.Duration `yaml:"padding"`
	} `yaml:"vad"`

	Align struct {
		// TimeShiftFrames overrides the encoder look-ahead correction.
		TimeShiftFrames *float64 `yaml:"time_shift_frames"`
	} `yaml:"align"`

	Telemetry struct {
		ConfigPath string `yaml:"config_path"`
	} `yaml:"telemetry"`
}

func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Model.SampleRateHz == 0 {
		c.Model.SampleRateHz = 16000
	}
}

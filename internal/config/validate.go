package config

import (
	"errors"
	"fmt"
	"strings"

	"vocalsub/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDiarization(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateRefinement(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must be zero or positive")
	}
	return nil
}

// ValidatePipeline checks the settings that only matter when the pipeline
// actually runs: model credentials. Transcript editing commands skip it.
func (c *Config) ValidatePipeline() error {
	if strings.TrimSpace(c.Diarization.HFToken) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("diarization.hf_token is required. Set HF_TOKEN env var or edit %s (create with 'vocalsub config init')", defaultPath)
	}
	if c.Refinement.Enabled && strings.TrimSpace(c.Refinement.APIKey) == "" {
		return errors.New("refinement.api_key must be set when refinement.enabled is true (or export DEEPSEEK_API_KEY)")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.Model == "" {
		return errors.New("transcription.model must be set")
	}
	lang := c.Transcription.Language
	if _, err := language.Normalize(lang); err != nil {
		return fmt.Errorf("transcription.language %q must be \"auto\" or a language code such as \"en\"", lang)
	}
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method %q must be \"silero\" or \"pyannote\"", c.Transcription.VADMethod)
	}
	return nil
}

func (c *Config) validateDiarization() error {
	if c.Diarization.NumSpeakers < 0 {
		return errors.New("diarization.num_speakers must be zero (auto) or positive")
	}
	if c.Diarization.Model == "" {
		return errors.New("diarization.model must be set")
	}
	return nil
}

func (c *Config) validateSeparation() error {
	if c.Separation.SampleRate <= 0 {
		return errors.New("separation.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateRefinement() error {
	if c.Refinement.Temperature < 0 || c.Refinement.Temperature > 2 {
		return errors.New("refinement.temperature must be between 0 and 2")
	}
	if c.Refinement.TimeoutSeconds < 0 {
		return errors.New("refinement.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be \"console\" or \"json\"", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

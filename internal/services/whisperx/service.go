package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vocalsub/internal/language"
	"vocalsub/internal/services"
	"vocalsub/internal/transcript"
)

// CommandRunner executes an external command with extra environment entries.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) error

// Service provides WhisperX transcription.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.UVXBinary == "" {
		cfg.UVXBinary = uvxCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Transcribe runs WhisperX on wavPath and returns the recognized segments in
// time order, without speakers. IDs are assigned 1..n. The language hint may
// be "auto" or empty for detection. An empty result is not an error.
func (s *Service) Transcribe(ctx context.Context, wavPath, lang string) ([]transcript.Segment, error) {
	if wavPath == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribing", "whisperx", "source path required", nil)
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(wavPath), "whisperx-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribing", "whisperx", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, s.env(), s.cfg.UVXBinary, s.buildArgs(wavPath, outputDir, lang)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribing", "whisperx", "transcription failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	raw, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribing", "whisperx", "read transcription output", err)
	}
	return ToTranscript(raw), nil
}

func (s *Service) env() []string {
	env := []string{}
	if s.cfg.CacheDir != "" {
		env = append(env, "HF_HOME="+s.cfg.CacheDir)
	}
	if s.cfg.HFToken != "" {
		env = append(env, "HF_TOKEN="+s.cfg.HFToken)
	}
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return env
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, env []string, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, env, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = append(os.Environ(), env...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLines(string(output), 5))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, lang string) []string {
	args := make([]string, 0, 40)
	args = append(args, s.cfg.indexArgs()...)
	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--output_dir", outputDir,
		"--output_format", "json",
		"--segment_resolution", "sentence",
		"--no_align",
	)
	args = append(args, s.cfg.Tuning.withDefaults().args()...)

	vad := s.cfg.vadMethod()
	args = append(args, "--vad_method", vad)
	if vad == VADPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if hint := language.TranscriptionHint(lang); hint != "" {
		args = append(args, "--language", hint)
	}
	return append(args, s.cfg.deviceArgs()...)
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// ToTranscript converts WhisperX segments to transcript segments. Blank text
// is dropped, missing times become zero, and an end before its start is
// clamped to the start.
func ToTranscript(raw []Segment) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(raw))
	for _, seg := range raw {
		text := transcript.NormalizeText(seg.Text)
		if text == "" {
			continue
		}
		start := transcript.FromSeconds(deref(seg.Start))
		end := transcript.FromSeconds(deref(seg.End))
		if end < start {
			end = start
		}
		out = append(out, transcript.Segment{
			ID:    len(out) + 1,
			Start: start,
			End:   end,
			Text:  text,
		})
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

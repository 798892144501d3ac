package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vocalsub/internal/services"
	"vocalsub/internal/transcript"
)

const (
	// DefaultModel is the pyannote pipeline used when none is configured.
	DefaultModel = "pyannote/speaker-diarization-3.1"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"
	scriptName   = "vocalsub_diarize.py"
)

// ErrModelAccess reports a gated model whose terms have not been accepted
// or an invalid Hugging Face token.
var ErrModelAccess = errors.New("hugging face model access denied")

// Config captures runtime settings for diarization.
type Config struct {
	Model       string
	HFToken     string
	CacheDir    string
	CUDAEnabled bool
	UVXBinary   string
}

// CommandRunner executes a command with extra environment entries and returns
// stdout and stderr separately.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) (stdout, stderr []byte, err error)

// Service runs speaker diarization.
type Service struct {
	cfg Config
	run CommandRunner
}

// NewService creates a diarization service.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.UVXBinary == "" {
		cfg.UVXBinary = "uvx"
	}
	return &Service{cfg: cfg, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.run = runner
	}
}

type turnJSON struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

type scriptOutput struct {
	Turns []turnJSON `json:"turns"`
	Error string     `json:"error,omitempty"`
}

// Diarize returns the speaker turns found in wavPath. numSpeakers <= 0 lets
// the model decide how many speakers there are.
func (s *Service) Diarize(ctx context.Context, wavPath string, numSpeakers int) ([]transcript.SpeakerTurn, error) {
	if strings.TrimSpace(s.cfg.HFToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "diarizing", "pyannote", "hugging face token required", nil)
	}
	scriptPath := filepath.Join(filepath.Dir(wavPath), scriptName)
	if err := os.WriteFile(scriptPath, []byte(diarizeScript), 0o644); err != nil {
		return nil, services.Wrap(services.ErrTransient, "diarizing", "pyannote", "write diarization script", err)
	}
	defer os.Remove(scriptPath)

	stdout, stderr, err := s.run(ctx, s.env(), s.cfg.UVXBinary, s.buildArgs(scriptPath, wavPath, numSpeakers)...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarizing", "pyannote", "diarization failed", describeFailure(err, stderr))
	}

	var out scriptOutput
	if err := json.Unmarshal(bytes.TrimSpace(lastJSONLine(stdout)), &out); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarizing", "pyannote", "parse diarization output", err)
	}
	turns := make([]transcript.SpeakerTurn, 0, len(out.Turns))
	for _, t := range out.Turns {
		turns = append(turns, transcript.SpeakerTurn{
			Start:   transcript.FromSeconds(t.Start),
			End:     transcript.FromSeconds(t.End),
			Speaker: transcript.NormalizeSpeaker(t.Speaker),
		})
	}
	return turns, nil
}

func (s *Service) buildArgs(scriptPath, wavPath string, numSpeakers int) []string {
	// torchaudio + soundfile are the audio decoder fallback (torchcodec often fails).
	args := []string{
		"--quiet",
		"--with", "pyannote.audio",
		"--with", "torchaudio",
		"--with", "soundfile",
		"--with", "omegaconf",
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL)
	}
	args = append(args, "python", scriptPath,
		"--audio", wavPath,
		"--model", s.cfg.Model,
	)
	if numSpeakers > 0 {
		args = append(args, "--num-speakers", strconv.Itoa(numSpeakers))
	}
	return args
}

func (s *Service) env() []string {
	env := []string{"HF_TOKEN=" + strings.TrimSpace(s.cfg.HFToken)}
	if s.cfg.CacheDir != "" {
		env = append(env, "HF_HOME="+s.cfg.CacheDir)
	}
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return env
}

// describeFailure turns script stderr into a short error.
func describeFailure(err error, stderr []byte) error {
	text := string(stderr)
	if strings.Contains(text, "GatedRepoError") || strings.Contains(text, "401") {
		return fmt.Errorf("%w: accept the model terms at https://hf.co/pyannote/speaker-diarization-3.1 and https://hf.co/pyannote/segmentation-3.0, then retry", ErrModelAccess)
	}
	var out scriptOutput
	if json.Unmarshal(lastJSONLine(stderr), &out) == nil && out.Error != "" {
		return fmt.Errorf("%w: %s", err, out.Error)
	}
	msg := strings.TrimSpace(text)
	if idx := strings.LastIndex(msg, "Error:"); idx != -1 {
		msg = strings.TrimSpace(msg[idx:])
	} else {
		lines := strings.Split(msg, "\n")
		msg = strings.TrimSpace(lines[len(lines)-1])
	}
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}

// lastJSONLine returns the last line that looks like a JSON object, since
// libraries may print progress before the script's result.
func lastJSONLine(data []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return bytes.TrimSpace(data)
}

func runCommand(ctx context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), env...)
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

package demucs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vocalsub/internal/services"
)

const (
	// DefaultModel is the Demucs model used when none is configured.
	DefaultModel = "htdemucs"
	// NativeSampleRate is the rate every bundled Demucs model operates at.
	NativeSampleRate = 44100

	outputDir  = "separated"
	vocalsStem = "vocals.wav"
)

// Config captures runtime settings for separation.
type Config struct {
	Model       string
	SampleRate  int
	CUDAEnabled bool
	CacheDir    string
	UVXBinary   string
}

// CommandRunner executes a command with extra environment entries and returns
// its combined output.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// Service runs Demucs two-stem separation.
type Service struct {
	cfg Config
	run CommandRunner
}

// NewService creates a separation service.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = NativeSampleRate
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

// SampleRate returns the rate input audio must be at before Separate.
func (s *Service) SampleRate() int {
	return s.cfg.SampleRate
}

// Separate writes the vocal stem of input under workDir and returns its path.
func (s *Service) Separate(ctx context.Context, input, workDir string) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", services.Wrap(services.ErrNotFound, "separating", "demucs", "input audio missing", err)
	}
	outRoot := filepath.Join(workDir, outputDir)
	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "separating", "demucs", "create output directory", err)
	}

	output, err := s.run(ctx, s.env(), s.cfg.UVXBinary, s.buildArgs(input, outRoot)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "separating", "demucs", "separation failed", fmt.Errorf("%w: %s", err, lastLine(output)))
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	vocals := filepath.Join(outRoot, s.cfg.Model, stem, vocalsStem)
	if _, err := os.Stat(vocals); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "separating", "demucs", "vocal stem not produced", err)
	}
	return vocals, nil
}

func (s *Service) buildArgs(input, outRoot string) []string {
	device := "cpu"
	if s.cfg.CUDAEnabled {
		device = "cuda"
	}
	return []string{
		"demucs",
		"--two-stems", "vocals",
		"-n", s.cfg.Model,
		"-d", device,
		"-o", outRoot,
		input,
	}
}

func (s *Service) env() []string {
	if s.cfg.CacheDir == "" {
		return nil
	}
	return []string{"TORCH_HOME=" + filepath.Join(s.cfg.CacheDir, "torch")}
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func runCommand(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vocalsub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HFCacheDir = filepath.Join(base, "hf")
	cfgVal.Diarization.HFToken = "hf_test"
	cfgVal.Watch.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Watch.SettleSeconds = 1
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRefinement enables LLM refinement against the given endpoint.
func WithRefinement(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Refinement.Enabled = true
		b.cfg.Refinement.APIKey = "test"
		b.cfg.Refinement.BaseURL = baseURL
	}
}

// WithNumSpeakers sets the expected speaker count.
func WithNumSpeakers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Diarization.NumSpeakers = n
	}
}

// WithStubbedBinaries puts do-nothing executables for names (ffmpeg,
// ffprobe and uvx when empty) first on PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

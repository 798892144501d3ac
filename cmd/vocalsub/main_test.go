package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"vocalsub/internal/pipeline"
	"vocalsub/internal/services"
	"vocalsub/internal/testsupport"
	"vocalsub/internal/transcript"
)

func TestRootHelpListsCommands(t *testing.T) {
	out, _, err := runCLI(t, []string{"--help"}, "")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"generate", "transcript", "serve", "watch", "status", "config"} {
		requireContains(t, out, name)
	}
}

func TestGenerateRequiresExistingVideo(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"generate", filepath.Join(env.baseDir, "missing.mp4")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateRejectsNegativeSpeakers(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "talk.mp4")
	testsupport.WriteFile(t, video, 16)

	_, _, err := runCLI(t, []string{"generate", video, "--speakers", "-1"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateRequiresToken(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Diarization.HFToken = ""
	writeTestConfig(t, env.configPath, env.cfg)
	video := filepath.Join(env.baseDir, "talk.mp4")
	testsupport.WriteFile(t, video, 16)

	_, _, err := runCLI(t, []string{"generate", video, "--skip-preflight"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing token to fail")
	}
	requireContains(t, err.Error(), "hf_token")
}

func TestGenerateRejectsInvalidLanguageOverride(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "talk.mp4")
	testsupport.WriteFile(t, video, 16)

	_, _, err := runCLI(t, []string{"generate", video, "--language", "not a language"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid language to fail")
	}
	requireContains(t, err.Error(), "transcription.language")
}

func TestStatusRendersPreflightTable(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	// Scratch space depends on the host, so only the table is asserted.
	out, _, _ := runCLI(t, []string{"status"}, env.configPath)
	requireContains(t, out, "Config: "+env.configPath)
	for _, want := range []string{"Work directory", "FFmpeg", "FFprobe", "uvx", "Hugging Face token"} {
		requireContains(t, out, want)
	}
}

func TestStatusReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil {
		t.Fatal("expected failed checks to return an error")
	}
	requireContains(t, out, "FAIL")
}

func TestWatchRequiresInbox(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Watch.InboxDir = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"watch"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing inbox to fail")
	}
	requireContains(t, err.Error(), "inbox")
}

func TestSpeakerPaletteAssignsStableColours(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	p := newSpeakerPalette(os.Stdout, []string{"unknown", "Alice", "Bob"})
	if got := p.paint("Alice"); got != "Alice" {
		t.Fatalf("expected plain label with NO_COLOR, got %q", got)
	}
	if _, ok := p.colors["unknown"]; ok {
		t.Fatal("unknown speaker should not get a colour")
	}
	if p.colors["Alice"][0] == p.colors["Bob"][0] {
		t.Fatal("expected distinct colours per speaker")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), 130},
		{"validation", services.Wrap(services.ErrValidation, "", "generate", "speakers", nil), 2},
		{"bad range", fmt.Errorf("edit: %w", transcript.ErrInvalidRange), 2},
		{"unknown segment", transcript.ErrNotFound, 2},
		{"busy", &pipeline.StageError{Stage: pipeline.StageIdle, Err: pipeline.ErrRunInProgress}, 3},
		{"tool failure", services.Wrap(services.ErrExternalTool, "transcribing", "whisperx", "failed", errors.New("exit 1")), 1},
		{"plain", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Fatalf("%s: exitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

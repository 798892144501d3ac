package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"vocalsub/internal/services"
)

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func TestTranscribeParsesOutput(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "vocals.wav")
	if err := os.WriteFile(wav, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(Config{Model: "medium", CacheDir: "/cache/hf"})
	var gotArgs, gotEnv []string
	svc.WithCommandRunner(func(_ context.Context, env []string, name string, args ...string) error {
		if name != "uvx" {
			t.Fatalf("unexpected command %q", name)
		}
		gotArgs, gotEnv = args, env
		payload := `{"segments":[
			{"text":" Hello there. ","start":0.5,"end":1.25},
			{"text":"   ","start":1.3,"end":1.4},
			{"text":"Second\nline","start":2.0009,"end":1.9}
		]}`
		out := filepath.Join(argValue(args, "--output_dir"), "vocals.json")
		return os.WriteFile(out, []byte(payload), 0o644)
	})

	segments, err := svc.Transcribe(context.Background(), wav, "chinese")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].ID != 1 || segments[0].Text != "Hello there." || segments[0].Start != 500*time.Millisecond || segments[0].End != 1250*time.Millisecond {
		t.Fatalf("unexpected first segment %+v", segments[0])
	}
	if segments[1].ID != 2 || segments[1].Text != "Second line" || segments[1].End != segments[1].Start {
		t.Fatalf("expected clamped second segment, got %+v", segments[1])
	}
	if segments[1].Speaker != "" {
		t.Fatalf("transcription must not assign speakers, got %q", segments[1].Speaker)
	}

	if argValue(gotArgs, "--model") != "medium" || argValue(gotArgs, "--language") != "zh" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if argValue(gotArgs, "--output_format") != "json" || argValue(gotArgs, "--device") != "cpu" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if !slices.Contains(gotEnv, "HF_HOME=/cache/hf") {
		t.Fatalf("expected HF_HOME in env, got %v", gotEnv)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected whisperx output dir cleaned up, found %d entries", len(entries))
	}
}

func TestTranscribeAutoLanguageOmitsHint(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADPyannote, HFToken: "hf"})
	args := svc.buildArgs("in.wav", "out", "auto")
	if slices.Contains(args, "--language") {
		t.Fatalf("auto language must not pass a hint: %v", args)
	}
	if argValue(args, "--device") != "cuda" || argValue(args, "--hf_token") != "hf" {
		t.Fatalf("unexpected args %v", args)
	}
	if argValue(args, "--index-url") != cudaIndexURL {
		t.Fatalf("expected CUDA index url, got %v", args)
	}
}

func TestTranscribeFailureIsExternalToolError(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "vocals.wav")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, []string, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), wav, "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("expected cause in message, got %v", err)
	}
}

func TestTranscribeEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "vocals.wav")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ []string, _ string, args ...string) error {
		return os.WriteFile(filepath.Join(argValue(args, "--output_dir"), "vocals.json"), []byte(`{"segments":[]}`), 0o644)
	})
	segments, err := svc.Transcribe(context.Background(), wav, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}

func TestTuningDefaultsAndOverrides(t *testing.T) {
	args := NewService(Config{}).buildArgs("in.wav", "out", "")
	for flag, want := range map[string]string{
		"--batch_size":  "4",
		"--chunk_size":  "15",
		"--beam_size":   "5",
		"--vad_onset":   "0.08",
		"--vad_offset":  "0.07",
		"--temperature": "0",
		"--vad_method":  VADSilero,
		"--model":       DefaultModel,
	} {
		if got := argValue(args, flag); got != want {
			t.Fatalf("%s = %q, want %q (%v)", flag, got, want, args)
		}
	}
	if argValue(args, "--compute_type") != "float32" {
		t.Fatalf("expected float32 on CPU, got %v", args)
	}

	tuned := NewService(Config{Tuning: Tuning{BatchSize: 16, Temperature: 0.2}}).buildArgs("in.wav", "out", "")
	if argValue(tuned, "--batch_size") != "16" || argValue(tuned, "--temperature") != "0.2" || argValue(tuned, "--beam_size") != "5" {
		t.Fatalf("unexpected tuned args %v", tuned)
	}
}

package pyannote

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

func TestDiarizeParsesTurns(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "vocals.wav")

	svc := NewService(Config{HFToken: "hf_abc", CacheDir: "/cache/hf"})
	var gotArgs, gotEnv []string
	svc.WithCommandRunner(func(_ context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
		if name != "uvx" {
			t.Fatalf("unexpected command %q", name)
		}
		gotArgs, gotEnv = args, env
		script := args[slices.Index(args, "python")+1]
		if _, err := os.Stat(script); err != nil {
			t.Fatalf("expected script on disk: %v", err)
		}
		stdout := "loading model...\n" + `{"turns":[{"start":0,"end":5,"speaker":"SPEAKER_00"},{"start":4.5,"end":9.25,"speaker":" SPEAKER_01 "}]}` + "\n"
		return []byte(stdout), nil, nil
	})

	turns, err := svc.Diarize(context.Background(), wav, 2)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Speaker != "SPEAKER_00" || turns[0].End != 5*time.Second {
		t.Fatalf("unexpected first turn %+v", turns[0])
	}
	if turns[1].Speaker != "SPEAKER_01" || turns[1].Start != 4500*time.Millisecond || turns[1].End != 9250*time.Millisecond {
		t.Fatalf("unexpected second turn %+v", turns[1])
	}
	if argValue(gotArgs, "--audio") != wav || argValue(gotArgs, "--model") != DefaultModel {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if argValue(gotArgs, "--num-speakers") != "2" {
		t.Fatalf("expected speaker count in args, got %v", gotArgs)
	}
	if !slices.Contains(gotEnv, "HF_TOKEN=hf_abc") || !slices.Contains(gotEnv, "HF_HOME=/cache/hf") {
		t.Fatalf("unexpected env %v", gotEnv)
	}
	if slices.Contains(gotArgs, "hf_abc") {
		t.Fatalf("token must not appear in args: %v", gotArgs)
	}
	if _, err := os.Stat(filepath.Join(dir, scriptName)); !os.IsNotExist(err) {
		t.Fatalf("expected script removed, stat err=%v", err)
	}
}

func TestDiarizeAutoDetectOmitsSpeakerCount(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_abc", CUDAEnabled: true})
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, _ []string, _ string, args ...string) ([]byte, []byte, error) {
		gotArgs = args
		return []byte(`{"turns":[]}`), nil, nil
	})
	turns, err := svc.Diarize(context.Background(), filepath.Join(t.TempDir(), "a.wav"), 0)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no turns, got %v", turns)
	}
	if slices.Contains(gotArgs, "--num-speakers") {
		t.Fatalf("expected no speaker count, got %v", gotArgs)
	}
	if argValue(gotArgs, "--index-url") != cudaIndexURL {
		t.Fatalf("expected CUDA index url, got %v", gotArgs)
	}
}

func TestDiarizeRequiresToken(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, []string, string, ...string) ([]byte, []byte, error) {
		t.Fatal("runner should not be called")
		return nil, nil, nil
	})
	_, err := svc.Diarize(context.Background(), filepath.Join(t.TempDir(), "a.wav"), 0)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDiarizeMapsGatedModelError(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_abc"})
	svc.WithCommandRunner(func(context.Context, []string, string, ...string) ([]byte, []byte, error) {
		stderr := `{"error": "GatedRepoError: 401 Client Error"}`
		return nil, []byte(stderr), errors.New("exit status 1")
	})
	_, err := svc.Diarize(context.Background(), filepath.Join(t.TempDir(), "a.wav"), 0)
	if !errors.Is(err, ErrModelAccess) {
		t.Fatalf("expected model access error, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "segmentation-3.0") {
		t.Fatalf("expected remediation hint, got %v", err)
	}
}

func TestDiarizeReportsScriptError(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_abc"})
	failure := errors.New("exit status 1")
	svc.WithCommandRunner(func(context.Context, []string, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("warning: noise\n" + `{"error": "RuntimeError: CUDA out of memory"}`), failure
	})
	_, err := svc.Diarize(context.Background(), filepath.Join(t.TempDir(), "a.wav"), 0)
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected script message, got %v", err)
	}
}

func TestDiarizeRejectsGarbageOutput(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_abc"})
	svc.WithCommandRunner(func(context.Context, []string, string, ...string) ([]byte, []byte, error) {
		return []byte("not json"), nil, nil
	})
	_, err := svc.Diarize(context.Background(), filepath.Join(t.TempDir(), "a.wav"), 0)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"vocalsub/internal/media/ffprobe"
	"vocalsub/internal/testsupport"
)

func TestProbeReadsHeaderAndDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteWAV(t, path, 16000, 2, 24000)

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 2 || info.BitDepth != 16 {
		t.Fatalf("unexpected header %+v", info)
	}
	if info.Frames != 24000 {
		t.Fatalf("expected 24000 frames, got %d", info.Frames)
	}
	if info.Duration != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", info.Duration)
	}
}

func TestProbeRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	testsupport.WriteFile(t, path, 128)
	if _, err := Probe(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

func inspector(audioStreams int) InspectFunc {
	return func(context.Context, string) (ffprobe.Result, error) {
		result := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}
		for i := 0; i < audioStreams; i++ {
			result.Streams = append(result.Streams, ffprobe.Stream{Index: i + 1, CodecType: "audio"})
		}
		return result, nil
	}
}

func TestExtractRejectsVideoWithoutAudio(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "silent.mp4")
	testsupport.WriteFile(t, video, 64)

	ran := false
	extractor := NewExtractor("ffmpeg", "ffprobe").
		WithInspector(inspector(0)).
		WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
			ran = true
			return nil, nil
		})

	_, err := extractor.Extract(context.Background(), video, filepath.Join(dir, "audio.wav"))
	if !errors.Is(err, ErrNoAudioTrack) {
		t.Fatalf("expected ErrNoAudioTrack, got %v", err)
	}
	if ran {
		t.Fatal("ffmpeg must not run for a video without audio")
	}
}

func TestExtractRunsFFmpegAndProbesOutput(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "talk.mp4")
	testsupport.WriteFile(t, video, 64)
	dest := filepath.Join(dir, "audio.wav")

	var gotArgs []string
	extractor := NewExtractor("/opt/ffmpeg", "ffprobe").
		WithInspector(inspector(2)).
		WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
			if name != "/opt/ffmpeg" {
				t.Fatalf("unexpected binary %q", name)
			}
			gotArgs = args
			testsupport.WriteWAV(t, args[len(args)-1], 48000, 2, 4800)
			return nil, nil
		})

	info, err := extractor.Extract(context.Background(), video, dest)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.SampleRate != 48000 || info.Duration != 100*time.Millisecond {
		t.Fatalf("unexpected info %+v", info)
	}
	if !slices.Contains(gotArgs, "0:a:0") || !slices.Contains(gotArgs, "pcm_s16le") {
		t.Fatalf("unexpected ffmpeg args %v", gotArgs)
	}
}

func TestExtractMapsFFmpegStreamErrors(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "talk.mp4")
	testsupport.WriteFile(t, video, 64)

	extractor := NewExtractor("ffmpeg", "ffprobe").
		WithInspector(inspector(1)).
		WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
			return []byte("Stream map '0:a:0' matches no streams."), errors.New("exit status 1")
		})
	_, err := extractor.Extract(context.Background(), video, filepath.Join(dir, "a.wav"))
	if !errors.Is(err, ErrNoAudioTrack) {
		t.Fatalf("expected ErrNoAudioTrack, got %v", err)
	}
}

func TestExtractMissingVideo(t *testing.T) {
	extractor := NewExtractor("", "").WithInspector(inspector(1))
	_, err := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "out.wav")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestResample(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	testsupport.WriteWAV(t, src, 48000, 1, 480)

	extractor := NewExtractor("ffmpeg", "ffprobe").
		WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
			if !slices.Contains(args, "44100") {
				t.Fatalf("expected target rate in args %v", args)
			}
			testsupport.WriteWAV(t, args[len(args)-1], 44100, 1, 441)
			return nil, nil
		})
	info, err := extractor.Resample(context.Background(), src, filepath.Join(dir, "out.wav"), 44100)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if info.SampleRate != 44100 {
		t.Fatalf("unexpected rate %d", info.SampleRate)
	}
	if _, err := extractor.Resample(context.Background(), src, "x.wav", 0); err == nil {
		t.Fatal("expected error for zero rate")
	}
}

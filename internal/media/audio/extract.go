package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vocalsub/internal/media/ffprobe"
)

// ErrNoAudioTrack reports a video without any audio stream.
var ErrNoAudioTrack = errors.New("video has no audio track")

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// InspectFunc probes a media file.
type InspectFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Extractor pulls the first audio stream out of a video as PCM WAV.
type Extractor struct {
	ffmpeg  string
	run     CommandRunner
	inspect InspectFunc
}

// NewExtractor builds an extractor for the given binaries.
func NewExtractor(ffmpegBinary, ffprobeBinary string) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Extractor{
		ffmpeg: ffmpegBinary,
		run:    runCommand,
		inspect: func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, ffprobeBinary, path)
		},
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) *Extractor {
	if runner != nil {
		e.run = runner
	}
	return e
}

// WithInspector sets a custom media probe (for testing).
func (e *Extractor) WithInspector(inspect InspectFunc) *Extractor {
	if inspect != nil {
		e.inspect = inspect
	}
	return e
}

// Extract writes the first audio stream of video to dest as 16-bit PCM at
// the source sample rate and channel layout.
func (e *Extractor) Extract(ctx context.Context, video, dest string) (Info, error) {
	if _, err := os.Stat(video); err != nil {
		return Info{}, fmt.Errorf("extract audio: %w", err)
	}
	probe, err := e.inspect(ctx, video)
	if err != nil {
		return Info{}, fmt.Errorf("extract audio: %w", err)
	}
	if probe.AudioStreamCount() == 0 {
		return Info{}, fmt.Errorf("%w: %s", ErrNoAudioTrack, filepath.Base(video))
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := e.ffmpegRun(ctx, args); err != nil {
		return Info{}, fmt.Errorf("extract audio: %w", err)
	}
	return Probe(dest)
}

// Resample converts src to rate Hz, keeping the channel layout.
func (e *Extractor) Resample(ctx context.Context, src, dest string, rate int) (Info, error) {
	if rate <= 0 {
		return Info{}, fmt.Errorf("resample: invalid sample rate %d", rate)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := e.ffmpegRun(ctx, args); err != nil {
		return Info{}, fmt.Errorf("resample: %w", err)
	}
	return Probe(dest)
}

func (e *Extractor) ffmpegRun(ctx context.Context, args []string) error {
	output, err := e.run(ctx, e.ffmpeg, args...)
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(string(output))
	if strings.Contains(msg, "matches no streams") || strings.Contains(msg, "does not contain any stream") {
		return fmt.Errorf("%w: %s", ErrNoAudioTrack, msg)
	}
	return fmt.Errorf("%s: %w: %s", filepath.Base(e.ffmpeg), err, msg)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

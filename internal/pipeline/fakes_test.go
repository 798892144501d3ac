package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vocalsub/internal/media/audio"
	"vocalsub/internal/transcript"
)

type fakeAudio struct {
	rate      int
	err       error
	extracted string
	resampled []int
}

func (f *fakeAudio) Extract(_ context.Context, _ string, dest string) (audio.Info, error) {
	if f.err != nil {
		return audio.Info{}, f.err
	}
	f.extracted = dest
	if err := os.WriteFile(dest, []byte("pcm"), 0o644); err != nil {
		return audio.Info{}, err
	}
	return audio.Info{Path: dest, SampleRate: f.rate, Channels: 2}, nil
}

func (f *fakeAudio) Resample(_ context.Context, _ string, dest string, rate int) (audio.Info, error) {
	f.resampled = append(f.resampled, rate)
	if err := os.WriteFile(dest, []byte("pcm"), 0o644); err != nil {
		return audio.Info{}, err
	}
	return audio.Info{Path: dest, SampleRate: rate, Channels: 2}, nil
}

type fakeSeparator struct {
	err     error
	called  bool
	input   string
	started chan struct{}
	release chan struct{}
}

func (f *fakeSeparator) SampleRate() int { return 44100 }

func (f *fakeSeparator) Separate(_ context.Context, input, workDir string) (string, error) {
	f.called = true
	f.input = input
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	vocals := filepath.Join(workDir, "vocals.wav")
	return vocals, os.WriteFile(vocals, []byte("vocals"), 0o644)
}

type fakeDiarizer struct {
	turns       []transcript.SpeakerTurn
	err         error
	numSpeakers int
}

func (f *fakeDiarizer) Diarize(_ context.Context, _ string, numSpeakers int) ([]transcript.SpeakerTurn, error) {
	f.numSpeakers = numSpeakers
	if f.err != nil {
		return nil, f.err
	}
	return f.turns, nil
}

type fakeTranscriber struct {
	segments []transcript.Segment
	err      error
	language string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, language string) ([]transcript.Segment, error) {
	f.language = language
	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

type progressLog struct {
	mu     sync.Mutex
	events []Progress
}

func (p *progressLog) record(ev Progress) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *progressLog) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Message
	}
	return out
}

type fixture struct {
	audio       *fakeAudio
	separator   *fakeSeparator
	diarizer    *fakeDiarizer
	transcriber *fakeTranscriber
	workDir     string
	outputDir   string
	video       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	video := filepath.Join(base, "Interview 01.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		audio:     &fakeAudio{rate: 48000},
		separator: &fakeSeparator{},
		diarizer: &fakeDiarizer{turns: []transcript.SpeakerTurn{
			{Start: 0, End: 5 * second, Speaker: "SPEAKER_00"},
			{Start: 5 * second, End: 10 * second, Speaker: "SPEAKER_01"},
		}},
		transcriber: &fakeTranscriber{segments: []transcript.Segment{
			{ID: 1, Start: 1 * second, End: 3 * second, Text: "Hello there."},
			{ID: 2, Start: 6 * second, End: 8 * second, Text: "Hi."},
			{ID: 3, Start: 11 * second, End: 12 * second, Text: "Anyone?"},
		}},
		workDir:   filepath.Join(base, "work"),
		outputDir: filepath.Join(base, "out"),
		video:     video,
	}
}

func (f *fixture) collaborators() Collaborators {
	return Collaborators{
		Audio:       f.audio,
		Separator:   f.separator,
		Diarizer:    f.diarizer,
		Transcriber: f.transcriber,
	}
}

func (f *fixture) orchestrator(t *testing.T, mutate func(*Collaborators, *Options)) *Orchestrator {
	t.Helper()
	deps := f.collaborators()
	opts := Options{WorkDir: f.workDir, OutputDir: f.outputDir, Language: "en", NumSpeakers: 2}
	if mutate != nil {
		mutate(&deps, &opts)
	}
	o, err := New(deps, opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

// runDirs lists per-run scratch directories left in the work dir.
func runDirs(t *testing.T, workDir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(workDir, "run-*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

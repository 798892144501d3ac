package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"vocalsub/internal/logging"
	"vocalsub/internal/media/audio"
	"vocalsub/internal/refine"
	"vocalsub/internal/services"
	"vocalsub/internal/srt"
	"vocalsub/internal/textutil"
	"vocalsub/internal/transcript"
)

// OutputSuffix is appended to the video stem to name the caption file.
const OutputSuffix = "_subtitle.srt"

// AudioExtractor pulls audio out of a video and converts sample rates.
type AudioExtractor interface {
	Extract(ctx context.Context, video, dest string) (audio.Info, error)
	Resample(ctx context.Context, src, dest string, rate int) (audio.Info, error)
}

// Separator isolates the vocal track. Input must already be at SampleRate.
type Separator interface {
	SampleRate() int
	Separate(ctx context.Context, input, workDir string) (string, error)
}

// Diarizer labels who speaks when.
type Diarizer interface {
	Diarize(ctx context.Context, wavPath string, numSpeakers int) ([]transcript.SpeakerTurn, error)
}

// Transcriber converts speech to timed text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, language string) ([]transcript.Segment, error)
}

// Collaborators bundles the external services a run depends on. Refiner may
// be nil to skip refinement.
type Collaborators struct {
	Audio       AudioExtractor
	Separator   Separator
	Diarizer    Diarizer
	Transcriber Transcriber
	Refiner     refine.Refiner
}

// Options controls where a run works and what it asks the models for.
type Options struct {
	// WorkDir holds per-run scratch directories and lock files.
	WorkDir string
	// OutputDir receives caption files; empty writes next to the video.
	OutputDir string
	// Language is the transcription hint; "auto" or empty detects.
	Language string
	// NumSpeakers is the expected speaker count; 0 auto-detects.
	NumSpeakers int
	// Codec writes the caption file. The zero value uses speaker prefixes.
	Codec srt.Codec
}

// Run is a snapshot of one pipeline run.
type Run struct {
	ID       string    `json:"id"`
	Video    string    `json:"video"`
	Output   string    `json:"output,omitempty"`
	Stage    Stage     `json:"stage"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
}

// Active reports whether the run has not reached a terminal stage.
func (r Run) Active() bool {
	return !r.Stage.Terminal()
}

// Orchestrator executes pipeline runs one at a time.
type Orchestrator struct {
	deps   Collaborators
	opts   Options
	logger *slog.Logger
	sem    *semaphore.Weighted

	mu      sync.RWMutex
	current *Run
}

// New constructs an orchestrator. Every collaborator except Refiner is required.
func New(deps Collaborators, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Audio == nil:
		return nil, errors.New("pipeline requires an audio extractor")
	case deps.Separator == nil:
		return nil, errors.New("pipeline requires a vocal separator")
	case deps.Diarizer == nil:
		return nil, errors.New("pipeline requires a diarizer")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline requires a transcriber")
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		opts.WorkDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		sem:    semaphore.NewWeighted(1),
	}, nil
}

// Current returns the most recent run, if any.
func (o *Orchestrator) Current() (Run, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return Run{}, false
	}
	return *o.current, true
}

// OutputPath returns where a run for video writes its caption file.
func (o *Orchestrator) OutputPath(video string) string {
	dir := strings.TrimSpace(o.opts.OutputDir)
	if dir == "" {
		dir = filepath.Dir(video)
	}
	return filepath.Join(dir, textutil.OutputStem(video)+OutputSuffix)
}

// Run processes video and returns the caption file path. A second call while
// a run is active fails with ErrRunInProgress. Stage failures are returned as
// *StageError.
func (o *Orchestrator) Run(ctx context.Context, video string, progress ProgressFunc) (string, error) {
	if !o.sem.TryAcquire(1) {
		return "", ErrRunInProgress
	}
	defer o.sem.Release(1)

	if abs, err := filepath.Abs(video); err == nil {
		video = abs
	}
	if err := os.MkdirAll(o.opts.WorkDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "", "pipeline", "create work directory", err)
	}
	lock := flock.New(o.lockPath(video))
	locked, err := lock.TryLock()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "", "pipeline", "acquire video lock", err)
	}
	if !locked {
		return "", fmt.Errorf("%w: %s is locked by another process", ErrRunInProgress, filepath.Base(video))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release video lock", logging.Error(err))
		}
		_ = os.Remove(lock.Path())
	}()

	r := &runner{
		o:        o,
		progress: progress,
		run: Run{
			ID:      uuid.NewString(),
			Video:   video,
			Stage:   StageIdle,
			Started: time.Now().UTC(),
		},
	}
	o.publish(r.run)

	ctx = services.WithRunID(ctx, r.run.ID)
	ctx = services.WithVideo(ctx, video)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("language", o.opts.Language),
		logging.Int("num_speakers", o.opts.NumSpeakers),
		logging.Bool("refinement", o.deps.Refiner != nil),
	)

	workDir, err := os.MkdirTemp(o.opts.WorkDir, "run-")
	if err != nil {
		return "", r.fail(logger, &StageError{Stage: StageIdle, Err: services.Wrap(services.ErrConfiguration, "", "pipeline", "create run directory", err)})
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(logger, "failed to remove run directory", "cleanup_failed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
				logging.String(logging.FieldImpact, "intermediate audio remains on disk"),
			)
		}
	}()

	output, err := r.execute(ctx, workDir)
	if err != nil {
		return "", r.fail(logger, err)
	}
	r.run.Output = output
	r.transition(StageDone, "done")
	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", output),
		logging.Duration("run_duration", time.Since(r.run.Started)),
	)
	return output, nil
}

func (o *Orchestrator) lockPath(video string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(video))
	return filepath.Join(o.opts.WorkDir, fmt.Sprintf("%s-%08x.lock", textutil.SanitizeToken(textutil.OutputStem(video)), h.Sum32()))
}

func (o *Orchestrator) publish(r Run) {
	o.mu.Lock()
	o.current = &r
	o.mu.Unlock()
}

// runner carries the state of a single run.
type runner struct {
	o        *Orchestrator
	progress ProgressFunc
	run      Run
}

func (r *runner) execute(ctx context.Context, workDir string) (string, error) {
	o := r.o
	video := r.run.Video
	extracted := filepath.Join(workDir, "audio.wav")

	var info audio.Info
	if err := r.stage(ctx, StageExtractingAudio, "extracting audio", func(ctx context.Context) error {
		var err error
		info, err = o.deps.Audio.Extract(ctx, video, extracted)
		if err == nil {
			logging.WithContext(ctx, o.logger).Debug("audio extracted",
				logging.Int("sample_rate", info.SampleRate),
				logging.Int("channels", info.Channels),
				logging.Seconds("audio_seconds", info.Duration),
			)
		}
		return err
	}); err != nil {
		return "", err
	}

	var vocals string
	if err := r.stage(ctx, StageSeparatingVocals, "separating vocals", func(ctx context.Context) error {
		input := extracted
		rate := o.deps.Separator.SampleRate()
		if rate > 0 && info.SampleRate != rate {
			input = filepath.Join(workDir, fmt.Sprintf("audio_%dhz.wav", rate))
			if _, err := o.deps.Audio.Resample(ctx, extracted, input, rate); err != nil {
				return err
			}
		}
		var err error
		vocals, err = o.deps.Separator.Separate(ctx, input, workDir)
		r.removeIntermediate(ctx, extracted, input)
		return err
	}); err != nil {
		return "", err
	}

	var turns []transcript.SpeakerTurn
	if err := r.stage(ctx, StageDiarizing, diarizeLabel(o.opts.NumSpeakers), func(ctx context.Context) error {
		var err error
		turns, err = o.deps.Diarizer.Diarize(ctx, vocals, o.opts.NumSpeakers)
		return err
	}); err != nil {
		return "", err
	}

	var segments []transcript.Segment
	if err := r.stage(ctx, StageTranscribing, "transcribing", func(ctx context.Context) error {
		var err error
		segments, err = o.deps.Transcriber.Transcribe(ctx, vocals, o.opts.Language)
		if err == nil && len(segments) == 0 {
			err = ErrEmptyTranscription
		}
		return err
	}); err != nil {
		return "", err
	}

	if err := r.stage(ctx, StageMergingSpeakers, "matching speakers to text", func(context.Context) error {
		segments = transcript.AssignSpeakers(turns, segments)
		return nil
	}); err != nil {
		return "", err
	}

	if o.deps.Refiner != nil {
		if err := r.stage(ctx, StageRefining, "refining text", func(ctx context.Context) error {
			segments, _ = refine.Apply(ctx, o.deps.Refiner, segments, logging.WithContext(ctx, o.logger))
			return nil
		}); err != nil {
			return "", err
		}
	}

	output := o.OutputPath(video)
	if err := r.stage(ctx, StageWritingOutput, "writing subtitles", func(context.Context) error {
		return o.opts.Codec.WriteFile(output, segments)
	}); err != nil {
		return "", err
	}
	return output, nil
}

// stage moves the run into next, runs fn, and wraps any failure.
func (r *runner) stage(ctx context.Context, next Stage, label string, fn func(context.Context) error) error {
	if !r.run.Stage.CanTransition(next) {
		return &StageError{Stage: r.run.Stage, Err: fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.run.Stage, next)}
	}
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: next, Err: err}
	}
	r.transition(next, stepMessage(next, label))

	stageCtx := services.WithStage(ctx, string(next))
	logger := logging.WithContext(stageCtx, r.o.logger)
	started := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("step", next.Step()),
	)
	if err := fn(stageCtx); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", services.Classify(err)),
			logging.Error(err),
		)
		return &StageError{Stage: next, Err: err}
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func (r *runner) transition(next Stage, message string) {
	r.run.Stage = next
	r.run.Message = message
	if next.Terminal() {
		r.run.Finished = time.Now().UTC()
	}
	r.o.publish(r.run)
	if r.progress != nil {
		r.progress(Progress{
			RunID:   r.run.ID,
			Stage:   next,
			Step:    next.Step(),
			Total:   TotalSteps,
			Message: message,
			Time:    time.Now().UTC(),
		})
	}
}

func (r *runner) fail(logger *slog.Logger, err error) error {
	cause := err
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		cause = stageErr.Err
	}
	r.run.Error = cause.Error()
	r.transition(StageFailed, "error: "+cause.Error())
	logging.ErrorWithContext(logger, "pipeline run failed", "run_failure",
		logging.String("error_kind", services.Classify(cause)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(cause)),
		logging.String(logging.FieldImpact, "no caption file was written"),
	)
	return err
}

func (r *runner) removeIntermediate(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WithContext(ctx, r.o.logger).Debug("failed to remove intermediate audio",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, ErrNoAudioTrack):
		return "check that the video contains an audio stream"
	case errors.Is(err, ErrEmptyTranscription):
		return "check that the video contains audible speech"
	case errors.Is(err, services.ErrConfiguration):
		return "run vocalsub config validate"
	case errors.Is(err, services.ErrExternalTool):
		return "run vocalsub status to check external tools"
	default:
		return "see the log for details"
	}
}

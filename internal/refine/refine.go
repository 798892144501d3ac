package refine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vocalsub/internal/logging"
	"vocalsub/internal/transcript"
)

var (
	// ErrMismatch reports a refiner result whose length differs from the input.
	ErrMismatch = errors.New("refined line count does not match input")
	// ErrInvalidResponse reports a refiner result that is not a list of strings.
	ErrInvalidResponse = errors.New("refined result is not a list of strings")
)

// Refiner rewrites an ordered batch of texts. Implementations must return
// exactly one string per input, in order.
type Refiner interface {
	Refine(ctx context.Context, texts []string) ([]string, error)
}

// Outcome describes what Apply did.
type Outcome struct {
	// Applied is true when the refined texts replaced the originals.
	Applied bool
	// Changed counts segments whose text differs after refinement.
	Changed int
	// Err holds the absorbed failure when Applied is false.
	Err error
}

// Apply refines segment texts in a single call and returns new segments.
// Failures are logged and absorbed: the returned segments then carry the
// original texts. An empty refined element keeps that segment's text.
func Apply(ctx context.Context, r Refiner, segments []transcript.Segment, logger *slog.Logger) ([]transcript.Segment, Outcome) {
	out := make([]transcript.Segment, len(segments))
	copy(out, segments)
	if r == nil || len(segments) == 0 {
		return out, Outcome{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	refined, err := r.Refine(ctx, texts)
	if err == nil && len(refined) != len(texts) {
		err = fmt.Errorf("%w: got %d, want %d", ErrMismatch, len(refined), len(texts))
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "refinement discarded; keeping original text",
			"refine_fallback",
			logging.Error(err),
			logging.Int("segments", len(segments)),
			logging.String(logging.FieldErrorHint, "check refinement api key, model, and network access"),
			logging.String(logging.FieldImpact, "subtitles use unrefined transcription text"),
		)
		return out, Outcome{Err: err}
	}

	changed := 0
	for i, text := range refined {
		text = transcript.NormalizeText(text)
		if text == "" || text == out[i].Text {
			continue
		}
		out[i].Text = text
		changed++
	}
	logger.Info("refinement applied",
		logging.String(logging.FieldEventType, "refine_applied"),
		logging.Int("segments", len(segments)),
		logging.Int("changed", changed),
	)
	return out, Outcome{Applied: true, Changed: changed}
}

// Func adapts a function to the Refiner interface.
type Func func(ctx context.Context, texts []string) ([]string, error)

// Refine implements Refiner.
func (f Func) Refine(ctx context.Context, texts []string) ([]string, error) {
	return f(ctx, texts)
}

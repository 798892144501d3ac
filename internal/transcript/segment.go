package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// UnknownSpeaker is the display and export label for segments without an
// assigned speaker.
const UnknownSpeaker = "unknown"

var (
	// ErrNotFound reports an edit against a segment ID that is not in the transcript.
	ErrNotFound = errors.New("segment not found")
	// ErrInvalidRange reports a segment whose end precedes its start.
	ErrInvalidRange = errors.New("invalid segment time range")
	// ErrDuplicateID reports a load containing the same segment ID twice.
	ErrDuplicateID = errors.New("duplicate segment id")
	// ErrInvalidSpeaker reports an empty speaker name in a rename.
	ErrInvalidSpeaker = errors.New("invalid speaker name")
)

// Segment is one timed span of transcribed speech. An empty Speaker means
// diarization has not assigned one yet.
type Segment struct {
	ID      int           `json:"id"`
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Speaker string        `json:"speaker,omitempty"`
	Text    string        `json:"text"`
}

// SpeakerTurn is one labelled span produced by diarization.
type SpeakerTurn struct {
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Speaker string        `json:"speaker"`
}

// HasSpeaker reports whether the segment carries a real speaker label.
func (s Segment) HasSpeaker() bool {
	return !IsUnknownSpeaker(s.Speaker)
}

// Label returns the speaker for display and export, substituting UnknownSpeaker.
func (s Segment) Label() string {
	if IsUnknownSpeaker(s.Speaker) {
		return UnknownSpeaker
	}
	return s.Speaker
}

// Duration returns End - Start.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// Midpoint returns the middle of the segment interval.
func (s Segment) Midpoint() time.Duration {
	return s.Start + (s.End-s.Start)/2
}

// Validate checks the segment time range.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("%w: segment %d starts before zero", ErrInvalidRange, s.ID)
	}
	if s.End < s.Start {
		return fmt.Errorf("%w: segment %d ends at %s before it starts at %s",
			ErrInvalidRange, s.ID, FormatTimestamp(s.End), FormatTimestamp(s.Start))
	}
	return nil
}

// IsUnknownSpeaker reports whether label is unset or the sentinel.
func IsUnknownSpeaker(label string) bool {
	label = strings.TrimSpace(label)
	return label == "" || label == UnknownSpeaker
}

// NormalizeText folds a possibly multi-line string into a single NFC line
// with collapsed whitespace.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// NormalizeSpeaker trims a speaker label and folds it to NFC.
func NormalizeSpeaker(label string) string {
	return strings.TrimSpace(norm.NFC.String(label))
}

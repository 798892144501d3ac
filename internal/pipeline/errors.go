package pipeline

import (
	"errors"
	"fmt"

	"vocalsub/internal/media/audio"
)

var (
	// ErrRunInProgress reports a run request made while another run is active.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	// ErrNoAudioTrack reports a video without any audio stream.
	ErrNoAudioTrack = audio.ErrNoAudioTrack
	// ErrEmptyTranscription reports a transcription that produced no segments.
	ErrEmptyTranscription = errors.New("transcription produced no segments")
	// ErrInvalidTransition reports an out-of-order stage change.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// StageError records the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

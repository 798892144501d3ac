package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vocalsub/internal/pipeline"
	"vocalsub/internal/services"
	"vocalsub/internal/transcript"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "vocalsub: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps err to the process status: 2 for bad input, 3 when the video
// is already being processed, 130 when interrupted, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, transcript.ErrInvalidRange),
		errors.Is(err, transcript.ErrInvalidSpeaker),
		errors.Is(err, transcript.ErrNotFound):
		return 2
	case errors.Is(err, pipeline.ErrRunInProgress):
		return 3
	default:
		return 1
	}
}

package pipeline

import (
	"fmt"
	"time"
)

// Progress is a single human-readable update emitted during a run.
type Progress struct {
	RunID   string    `json:"run_id"`
	Stage   Stage     `json:"stage"`
	Step    int       `json:"step,omitempty"`
	Total   int       `json:"total"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ProgressFunc receives progress updates. It is called synchronously from the
// run goroutine and should not block.
type ProgressFunc func(Progress)

func stepMessage(stage Stage, label string) string {
	return fmt.Sprintf("step %d/%d: %s", stage.Step(), TotalSteps, label)
}

func diarizeLabel(numSpeakers int) string {
	if numSpeakers > 0 {
		return fmt.Sprintf("identifying speakers (%d speakers)", numSpeakers)
	}
	return "identifying speakers (auto-detect)"
}

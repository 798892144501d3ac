package pipeline

// Stage names a pipeline state.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageExtractingAudio  Stage = "extracting_audio"
	StageSeparatingVocals Stage = "separating_vocals"
	StageDiarizing        Stage = "diarizing"
	StageTranscribing     Stage = "transcribing"
	StageMergingSpeakers  Stage = "merging_speakers"
	StageRefining         Stage = "refining"
	StageWritingOutput    Stage = "writing_output"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// TotalSteps is the number of numbered progress steps in a run.
const TotalSteps = 7

var transitions = map[Stage][]Stage{
	StageIdle:             {StageExtractingAudio},
	StageExtractingAudio:  {StageSeparatingVocals},
	StageSeparatingVocals: {StageDiarizing},
	StageDiarizing:        {StageTranscribing},
	StageTranscribing:     {StageMergingSpeakers},
	StageMergingSpeakers:  {StageRefining, StageWritingOutput},
	StageRefining:         {StageWritingOutput},
	StageWritingOutput:    {StageDone},
}

var stepNumbers = map[Stage]int{
	StageExtractingAudio:  1,
	StageSeparatingVocals: 2,
	StageDiarizing:        3,
	StageTranscribing:     4,
	StageMergingSpeakers:  5,
	StageRefining:         6,
	StageWritingOutput:    7,
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Step returns the 1-based progress step for a working stage, or 0.
func (s Stage) Step() int {
	return stepNumbers[s]
}

// CanTransition reports whether a run in stage s may move to next.
// Failed is reachable from every non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

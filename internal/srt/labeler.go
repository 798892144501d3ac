package srt

import (
	"strings"

	"vocalsub/internal/transcript"
)

// SpeakerLabeler embeds a speaker into cue text and recovers it again. Not
// every label survives the trip; Codec.Preserves reports which ones do.
type SpeakerLabeler interface {
	// Format renders the cue text for a segment.
	Format(speaker, text string) string
	// Split separates a cue line into speaker and text. An empty speaker
	// means the line carries no attribution.
	Split(line string) (speaker, text string)
}

const speakerSeparator = ": "

// PrefixLabeler writes "Speaker: text". On read, the part before the first
// ": " is taken as the speaker only when it contains no whitespace, so an
// ordinary sentence with a colon stays text. Labels with whitespace or ": "
// therefore read back as unattributed text.
type PrefixLabeler struct{}

// Format implements SpeakerLabeler.
func (PrefixLabeler) Format(speaker, text string) string {
	if transcript.IsUnknownSpeaker(speaker) {
		return text
	}
	return strings.TrimSpace(speaker) + speakerSeparator + text
}

// Split implements SpeakerLabeler.
func (PrefixLabeler) Split(line string) (string, string) {
	left, right, ok := strings.Cut(line, speakerSeparator)
	if !ok || left == "" || strings.ContainsAny(left, " \t") {
		return "", line
	}
	return left, right
}

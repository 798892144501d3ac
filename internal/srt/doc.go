// Package srt reads and writes SubRip caption files for transcripts.
//
// Each cue carries one transcript segment. Speaker attribution is embedded in
// the cue text by a SpeakerLabeler; PrefixLabeler writes "Speaker: text" and
// recovers the speaker on read when the prefix contains no whitespace. The
// labeler is pluggable so the embedding can change without touching callers.
//
// Decoding is CRLF-agnostic, tolerates a UTF-8 byte order mark, and
// renumbers segments 1..n in file order.
package srt

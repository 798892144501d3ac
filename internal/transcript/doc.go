// Package transcript holds the speaker-attributed transcript model: timed
// segments, the caption timestamp codec, speaker assignment from diarization
// turns, speaker block grouping, and the editable Store that backs an editing
// session.
//
// Everything here is pure and synchronous. The Store assumes a single writer;
// callers that share one across goroutines serialize access themselves.
package transcript

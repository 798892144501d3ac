// Package pyannote runs pyannote speaker diarization through uvx.
//
// An embedded Python script loads the diarization pipeline, runs it on a
// WAV file, and prints speaker turns as JSON on stdout. Turns are returned
// in the order pyannote emits them; they may overlap.
package pyannote

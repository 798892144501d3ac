// Package demucs isolates the vocal stem of an audio file with Demucs run
// through uvx.
package demucs

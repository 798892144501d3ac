// Package audio extracts and resamples audio tracks with ffmpeg and reads
// WAV headers with go-audio/wav.
//
// Extractor.Extract refuses videos without an audio stream (ErrNoAudioTrack)
// before ffmpeg is invoked, so the pipeline can fail before any separation
// work starts. Probe reports sample rate, channel count, bit depth and the
// exact decoded duration of a WAV file.
package audio

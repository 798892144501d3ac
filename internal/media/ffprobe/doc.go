// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns a parsed Result; Parse decodes output
// captured elsewhere. Helper methods on Result expose the audio streams and
// container duration the pipeline needs before extracting audio.
package ffprobe

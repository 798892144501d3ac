// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and source videos for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     uvx runners, and the LLM client read the same way in logs and CLI output.
//
// Subpackages wrap the individual external tools (WhisperX, pyannote, demucs,
// and the chat completion API).
package services

// Package pipeline turns a video file into a speaker-attributed caption file.
//
// An Orchestrator runs the stages strictly in order:
//
//	extract audio -> separate vocals -> diarize -> transcribe ->
//	assign speakers -> refine (optional) -> write captions
//
// Each stage reports a numbered progress message through the caller's
// ProgressFunc. Only one run may be active per Orchestrator, and a lock file
// keeps two processes from working on the same video at once. Intermediate
// audio lives in a per-run work directory that is removed whether the run
// succeeds or fails; the caption file is written atomically as the final step,
// so a failed run never leaves one behind.
package pipeline

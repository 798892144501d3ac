// Package api serves one transcript editing session over HTTP.
//
// # Routes
//
//	GET    /api/transcript         segments, speakers, source path
//	GET    /api/blocks             speaker blocks rebuilt from the segments
//	PATCH  /api/segments/{id}      edit timing, speaker, or text
//	DELETE /api/segments/{id}      remove a segment
//	POST   /api/speakers/rename    relabel every segment of a speaker
//	POST   /api/save               write edits back to the source file
//	POST   /api/export             write <stem>_edited.srt
//	POST   /api/runs               start a pipeline run in the background
//	GET    /api/runs/current       latest run snapshot
//	GET    /api/progress           websocket stream of run progress
//
// Edits are serialized by the session. A finished run replaces the session
// contents with its caption file.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps are SubRip strings
// ("HH:MM:SS,mmm") alongside float seconds so clients can render either.
// Errors are {"error": "..."} with 404 for unknown segments, 400 for invalid
// edits, and 409 when a run is already active.
package api

// Package preflight provides readiness checks for the services, binaries,
// and directories a pipeline run depends on.
//
// These checks run in two contexts:
//   - "vocalsub generate" and the inbox watcher call RunAll before starting,
//     so a run does not spend an hour separating vocals only to fail on a
//     missing token.
//   - "vocalsub status" shows every check as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight

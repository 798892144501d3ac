// Package watch runs the pipeline for video files dropped into an inbox
// directory.
//
// fsnotify events mark candidate files; a ticker promotes a candidate once
// its size and modification time have stayed unchanged for the settle
// period, then hands it to the processor. Files are processed one at a time.
// When fsnotify is unavailable, or its event channel closes, the same ticker
// rescans the directory instead.
package watch

// Package deps reports whether the external binaries and scratch space a
// pipeline run needs are available.
package deps

// Package textutil sanitizes user-supplied names for use in file paths.
package textutil

// Package language normalizes language settings for transcription.
//
// Settings may be ISO 639 codes of either length or English language names;
// parsing and display names come from golang.org/x/text/language.
package language

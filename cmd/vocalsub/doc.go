// Command vocalsub turns a video into speaker-attributed subtitles and edits
// the resulting transcripts.
//
// Subcommands:
//
//	generate <video>          run the seven-step pipeline and write <stem>_subtitle.srt
//	transcript ... <file.srt> inspect and edit a subtitle file in place
//	serve [file.srt]          HTTP editing server with live run progress
//	watch                     process videos dropped into the inbox directory
//	status                    preflight report for tools, directories and credentials
//	config init|validate      sample configuration and validation
package main

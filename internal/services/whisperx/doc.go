// Package whisperx runs WhisperX through uvx and converts its JSON output
// into transcript segments.
//
// WhisperX writes <stem>.json into the output directory; Transcribe reads
// the segments back, drops blank ones, and converts model seconds to
// millisecond durations. Configuration (model, CUDA, VAD method, language
// hint, model cache) is passed via Config.
package whisperx

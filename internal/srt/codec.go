package srt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"vocalsub/internal/fileutil"
	"vocalsub/internal/transcript"
)

// ErrMalformed reports a caption file that cannot be parsed.
var ErrMalformed = errors.New("malformed caption file")

const timingArrow = "-->"

// Codec converts between transcript segments and SubRip text.
type Codec struct {
	// Labeler embeds speakers in cue text. Nil uses PrefixLabeler.
	Labeler SpeakerLabeler
}

// Default is the codec used by the package-level helpers.
var Default = Codec{Labeler: PrefixLabeler{}}

func (c Codec) labeler() SpeakerLabeler {
	if c.Labeler == nil {
		return PrefixLabeler{}
	}
	return c.Labeler
}

// Preserves reports whether speaker reads back unchanged after an encode and
// decode with this codec. Unset speakers always do.
func (c Codec) Preserves(speaker string) bool {
	speaker = transcript.NormalizeSpeaker(speaker)
	if transcript.IsUnknownSpeaker(speaker) {
		return true
	}
	l := c.labeler()
	got, text := l.Split(l.Format(speaker, "x"))
	return got == speaker && text == "x"
}

// Encode writes segments as sequential 1-indexed cues in the order given.
// Segments whose text is empty are skipped and do not consume an index.
func (c Codec) Encode(w io.Writer, segments []transcript.Segment) error {
	labeler := c.labeler()
	index := 0
	for _, seg := range segments {
		text := transcript.NormalizeText(seg.Text)
		if text == "" {
			continue
		}
		index++
		_, err := fmt.Fprintf(w, "%d\n%s %s %s\n%s\n\n",
			index,
			transcript.FormatTimestamp(seg.Start),
			timingArrow,
			transcript.FormatTimestamp(seg.End),
			labeler.Format(seg.Speaker, text),
		)
		if err != nil {
			return fmt.Errorf("write cue %d: %w", index, err)
		}
	}
	return nil
}

// Marshal renders segments to SubRip bytes.
func (c Codec) Marshal(segments []transcript.Segment) []byte {
	var buf bytes.Buffer
	_ = c.Encode(&buf, segments)
	return buf.Bytes()
}

// Decode parses SubRip cues. Segment IDs are assigned 1..n in file order and
// cues without a recognized speaker get transcript.UnknownSpeaker.
func (c Codec) Decode(r io.Reader) ([]transcript.Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	return c.Unmarshal(data)
}

// Unmarshal parses SubRip bytes.
func (c Codec) Unmarshal(data []byte) ([]transcript.Segment, error) {
	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	labeler := c.labeler()
	segments := make([]transcript.Segment, 0)
	for _, block := range splitCues(content) {
		seg, err := parseCue(block, labeler)
		if err != nil {
			return nil, fmt.Errorf("%w: cue %d: %w", ErrMalformed, len(segments)+1, err)
		}
		seg.ID = len(segments) + 1
		segments = append(segments, seg)
	}
	return segments, nil
}

// WriteFile atomically replaces path with the encoded segments.
func (c Codec) WriteFile(path string, segments []transcript.Segment) error {
	if err := fileutil.AtomicWriteFile(path, c.Marshal(segments), 0o644); err != nil {
		return fmt.Errorf("write captions %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the caption file at path.
func (c Codec) ReadFile(path string) ([]transcript.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions %s: %w", path, err)
	}
	return c.Unmarshal(data)
}

// Marshal renders segments with the default codec.
func Marshal(segments []transcript.Segment) []byte { return Default.Marshal(segments) }

// Unmarshal parses SubRip bytes with the default codec.
func Unmarshal(data []byte) ([]transcript.Segment, error) { return Default.Unmarshal(data) }

// WriteFile writes a caption file with the default codec.
func WriteFile(path string, segments []transcript.Segment) error {
	return Default.WriteFile(path, segments)
}

// ReadFile reads a caption file with the default codec.
func ReadFile(path string) ([]transcript.Segment, error) { return Default.ReadFile(path) }

// splitCues groups lines into blocks separated by blank lines.
func splitCues(content string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseCue(lines []string, labeler SpeakerLabeler) (transcript.Segment, error) {
	if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return transcript.Segment{}, errors.New("missing timing line")
	}
	start, end, err := parseTiming(lines[0])
	if err != nil {
		return transcript.Segment{}, err
	}

	text := transcript.NormalizeText(strings.Join(lines[1:], " "))
	speaker, body := labeler.Split(text)
	seg := transcript.Segment{
		Start:   start,
		End:     end,
		Speaker: transcript.NormalizeSpeaker(speaker),
		Text:    strings.TrimSpace(body),
	}
	if seg.Speaker == "" {
		seg.Speaker = transcript.UnknownSpeaker
	}
	if err := seg.Validate(); err != nil {
		return transcript.Segment{}, err
	}
	return seg, nil
}

func parseTiming(line string) (start, end time.Duration, err error) {
	left, right, ok := strings.Cut(line, timingArrow)
	if !ok {
		return 0, 0, fmt.Errorf("timing line %q has no %q", line, timingArrow)
	}
	// Players may append positioning after the end time.
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("timing line %q has no end time", line)
	}
	if start, err = transcript.ParseTimestamp(left); err != nil {
		return 0, 0, err
	}
	if end, err = transcript.ParseTimestamp(fields[0]); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

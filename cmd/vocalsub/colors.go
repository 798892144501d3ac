package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"vocalsub/internal/transcript"
)

var speakerColors = []text.Colors{
	{text.FgCyan, text.Bold},
	{text.FgYellow, text.Bold},
	{text.FgGreen, text.Bold},
	{text.FgMagenta, text.Bold},
	{text.FgBlue, text.Bold},
	{text.FgRed, text.Bold},
}

// speakerPalette assigns each speaker a stable colour by order of first
// appearance. Unknown speakers stay uncoloured.
type speakerPalette struct {
	enabled bool
	colors  map[string]text.Colors
}

func newSpeakerPalette(out io.Writer, speakers []string) speakerPalette {
	p := speakerPalette{enabled: colorEnabled(out), colors: make(map[string]text.Colors)}
	n := 0
	for _, speaker := range speakers {
		if transcript.IsUnknownSpeaker(speaker) {
			continue
		}
		p.colors[speaker] = speakerColors[n%len(speakerColors)]
		n++
	}
	return p
}

func (p speakerPalette) paint(speaker string) string {
	if !p.enabled {
		return speaker
	}
	colors, ok := p.colors[speaker]
	if !ok {
		return speaker
	}
	return colors.Sprint(speaker)
}

func colorEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

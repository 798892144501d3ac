package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes a decoded WAV file.
type Info struct {
	Path       string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
}

// Probe reads the WAV header at path and counts its frames.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("probe wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("probe wav %s: invalid wav file", path)
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("probe wav %s: %w", path, err)
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth == 0 {
		return Info{}, fmt.Errorf("probe wav %s: invalid wav header", path)
	}

	samples, err := countSamples(dec)
	if err != nil {
		return Info{}, fmt.Errorf("probe wav %s: %w", path, err)
	}
	info := Info{
		Path:       path,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Frames:     samples / int(dec.NumChans),
	}
	info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	return info, nil
}

func countSamples(dec *wav.Decoder) (int, error) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
		Data:           make([]int, 16000*60),
		SourceBitDepth: int(dec.BitDepth),
	}
	total := 0
	for {
		n, err := dec.PCMBuffer(buf)
		total += n
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

package api

import (
	"vocalsub/internal/pipeline"
	"vocalsub/internal/transcript"
)

// Segment is the transport form of a transcript segment.
type Segment struct {
	ID           int     `json:"id"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Speaker      string  `json:"speaker"`
	Text         string  `json:"text"`
}

// Block is the transport form of a speaker block.
type Block struct {
	Speaker    string `json:"speaker"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Text       string `json:"text"`
	SegmentIDs []int  `json:"segmentIds"`
}

// TranscriptResponse is returned by GET /api/transcript.
type TranscriptResponse struct {
	Path     string    `json:"path"`
	Dirty    bool      `json:"dirty"`
	Speakers []string  `json:"speakers"`
	Segments []Segment `json:"segments"`
}

// BlocksResponse is returned by GET /api/blocks.
type BlocksResponse struct {
	Blocks []Block `json:"blocks"`
}

// SegmentUpdate is the body of PATCH /api/segments/{id}. Absent fields are
// left unchanged. Times use SubRip timestamps.
type SegmentUpdate struct {
	Start   *string `json:"start,omitempty"`
	End     *string `json:"end,omitempty"`
	Speaker *string `json:"speaker,omitempty"`
	Text    *string `json:"text,omitempty"`
}

// RenameRequest is the body of POST /api/speakers/rename.
type RenameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenameResponse reports how many segments changed.
type RenameResponse struct {
	Changed int `json:"changed"`
}

// ExportRequest is the optional body of POST /api/export.
type ExportRequest struct {
	Dir string `json:"dir,omitempty"`
}

// PathResponse reports a written file.
type PathResponse struct {
	Path string `json:"path"`
}

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	Video string `json:"video"`
}

// RunResponse wraps a run snapshot.
type RunResponse struct {
	Run *pipeline.Run `json:"run"`
}

// FromSegment converts a transcript segment.
func FromSegment(seg transcript.Segment) Segment {
	return Segment{
		ID:           seg.ID,
		Start:        transcript.FormatTimestamp(seg.Start),
		End:          transcript.FormatTimestamp(seg.End),
		StartSeconds: transcript.Seconds(seg.Start),
		EndSeconds:   transcript.Seconds(seg.End),
		Speaker:      seg.Label(),
		Text:         seg.Text,
	}
}

// FromBlock converts a speaker block.
func FromBlock(b transcript.SpeakerBlock) Block {
	return Block{
		Speaker:    b.Speaker,
		Start:      transcript.FormatTimestamp(b.StartTime()),
		End:        transcript.FormatTimestamp(b.EndTime()),
		Text:       b.FullText(),
		SegmentIDs: b.SegmentIDs(),
	}
}

func (u SegmentUpdate) toUpdate() (transcript.Update, error) {
	var out transcript.Update
	if u.Start != nil {
		d, err := transcript.ParseTimestamp(*u.Start)
		if err != nil {
			return out, err
		}
		out.Start = &d
	}
	if u.End != nil {
		d, err := transcript.ParseTimestamp(*u.End)
		if err != nil {
			return out, err
		}
		out.End = &d
	}
	out.Speaker = u.Speaker
	out.Text = u.Text
	return out, nil
}

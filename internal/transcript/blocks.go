package transcript

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// SpeakerBlock is a contiguous run of segments sharing one speaker. Blocks are
// derived views; edits go through the Store and blocks are rebuilt.
type SpeakerBlock struct {
	Speaker  string
	Segments []Segment
}

// StartTime returns the start of the first segment.
func (b SpeakerBlock) StartTime() time.Duration {
	if len(b.Segments) == 0 {
		return 0
	}
	return b.Segments[0].Start
}

// EndTime returns the end of the last segment.
func (b SpeakerBlock) EndTime() time.Duration {
	if len(b.Segments) == 0 {
		return 0
	}
	return b.Segments[len(b.Segments)-1].End
}

// FullText joins segment texts with single spaces.
func (b SpeakerBlock) FullText() string {
	parts := make([]string, 0, len(b.Segments))
	for _, seg := range b.Segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

// SegmentIDs lists the IDs of the block's segments in order.
func (b SpeakerBlock) SegmentIDs() []int {
	return lo.Map(b.Segments, func(seg Segment, _ int) int { return seg.ID })
}

// Aggregate groups chronologically ordered segments into speaker blocks in a
// single pass. A new block starts whenever the speaker label changes, so
// [A A B A] yields three blocks. Unset and UnknownSpeaker compare equal.
func Aggregate(segments []Segment) []SpeakerBlock {
	blocks := make([]SpeakerBlock, 0)
	for _, seg := range segments {
		label := seg.Label()
		if n := len(blocks); n > 0 && blocks[n-1].Speaker == label {
			blocks[n-1].Segments = append(blocks[n-1].Segments, seg)
			continue
		}
		blocks = append(blocks, SpeakerBlock{Speaker: label, Segments: []Segment{seg}})
	}
	return blocks
}

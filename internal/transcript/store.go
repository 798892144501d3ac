package transcript

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Update lists the fields to change on one segment. Nil fields are left as is.
type Update struct {
	Start   *time.Duration
	End     *time.Duration
	Speaker *string
	Text    *string
}

// Store is the editable transcript backing one editing session. Segments are
// kept sorted by start time (ties by ID) with unique IDs. Every operation
// either applies completely or leaves the store untouched.
type Store struct {
	segments []Segment
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the whole transcript. Segments with a zero ID are given fresh
// IDs. Text is normalized to a single line.
func (s *Store) Load(segments []Segment) error {
	loaded := make([]Segment, len(segments))
	seen := make(map[int]struct{}, len(segments))
	maxID := 0
	for _, seg := range segments {
		if seg.ID > maxID {
			maxID = seg.ID
		}
	}
	next := maxID + 1
	for i, seg := range segments {
		if seg.ID <= 0 {
			seg.ID = next
			next++
		}
		if _, dup := seen[seg.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, seg.ID)
		}
		seen[seg.ID] = struct{}{}
		seg.Text = NormalizeText(seg.Text)
		seg.Speaker = NormalizeSpeaker(seg.Speaker)
		if err := seg.Validate(); err != nil {
			return err
		}
		loaded[i] = seg
	}
	sortSegments(loaded)
	s.segments = loaded
	return nil
}

// Len returns the number of segments.
func (s *Store) Len() int {
	return len(s.segments)
}

// Get returns a copy of the segment with the given ID.
func (s *Store) Get(id int) (Segment, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Segment{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.segments[idx], nil
}

// Update applies the non-nil fields of u to segment id. The new range is
// validated before anything is written.
func (s *Store) Update(id int, u Update) (Segment, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Segment{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	seg := s.segments[idx]
	if u.Start != nil {
		seg.Start = *u.Start
	}
	if u.End != nil {
		seg.End = *u.End
	}
	if u.Speaker != nil {
		seg.Speaker = NormalizeSpeaker(*u.Speaker)
	}
	if u.Text != nil {
		seg.Text = NormalizeText(*u.Text)
	}
	if err := seg.Validate(); err != nil {
		return Segment{}, err
	}
	s.segments[idx] = seg
	if u.Start != nil {
		sortSegments(s.segments)
	}
	return seg, nil
}

// Delete removes segment id.
func (s *Store) Delete(id int) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.segments = slices.Delete(s.segments, idx, idx+1)
	return nil
}

// RenameSpeaker relabels every segment whose display label is oldName and
// returns how many changed. Unset speakers match UnknownSpeaker. Renaming to
// the same label changes nothing.
func (s *Store) RenameSpeaker(oldName, newName string) (int, error) {
	newName = NormalizeSpeaker(newName)
	if newName == "" {
		return 0, fmt.Errorf("%w: new name is empty", ErrInvalidSpeaker)
	}
	oldLabel := Segment{Speaker: NormalizeSpeaker(oldName)}.Label()
	if oldLabel == newName {
		return 0, nil
	}
	count := 0
	for i := range s.segments {
		if s.segments[i].Label() == oldLabel {
			s.segments[i].Speaker = newName
			count++
		}
	}
	return count, nil
}

// Export returns a copy of the segments sorted by start time.
func (s *Store) Export() []Segment {
	out := slices.Clone(s.segments)
	sortSegments(out)
	return out
}

// Blocks rebuilds the speaker blocks from the current segments.
func (s *Store) Blocks() []SpeakerBlock {
	return Aggregate(s.segments)
}

// Speakers lists the distinct display labels in order of first appearance.
func (s *Store) Speakers() []string {
	return lo.Uniq(lo.Map(s.segments, func(seg Segment, _ int) string {
		return seg.Label()
	}))
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.segments, func(seg Segment) bool { return seg.ID == id })
}

func sortSegments(segments []Segment) {
	slices.SortStableFunc(segments, func(a, b Segment) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}
			return 1
		}
		return a.ID - b.ID
	})
}

// Package session holds the transcript being edited together with the
// caption file it came from. All methods are safe for concurrent use; edits
// are serialized so a session has a single logical writer.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"vocalsub/internal/srt"
	"vocalsub/internal/transcript"
)

// EditedSuffix is appended to the source stem by ExportEdited.
const EditedSuffix = "_edited.srt"

// ErrNoSource reports a save on a session that was never bound to a file.
var ErrNoSource = errors.New("session has no source file")

// Session is an editable transcript bound to a caption file.
type Session struct {
	mu    sync.Mutex
	path  string
	codec srt.Codec
	store *transcript.Store
	dirty bool
}

// New returns an empty session not bound to any file.
func New() *Session {
	return &Session{store: transcript.NewStore()}
}

// Open reads a caption file into a new session.
func Open(path string) (*Session, error) {
	s := New()
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the session contents with the caption file at path.
func (s *Session) Load(path string) error {
	segments, err := s.codec.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(path, segments)
}

// Replace swaps in a new transcript and binds the session to path. On error
// the session is unchanged.
func (s *Session) Replace(path string, segments []transcript.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := transcript.NewStore()
	if err := store.Load(segments); err != nil {
		return err
	}
	s.store = store
	s.path = path
	s.dirty = false
	return nil
}

// Path returns the bound caption file, or "".
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports whether there are edits not yet saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) Segments() []transcript.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export()
}

func (s *Session) Blocks() []transcript.SpeakerBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Blocks()
}

func (s *Session) Speakers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Speakers()
}

func (s *Session) Get(id int) (transcript.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Update edits one segment. A speaker the caption format cannot store is
// rejected with transcript.ErrInvalidSpeaker.
func (s *Session) Update(id int, u transcript.Update) (transcript.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Speaker != nil {
		if err := s.checkSpeaker(*u.Speaker); err != nil {
			return transcript.Segment{}, err
		}
	}
	seg, err := s.store.Update(id, u)
	if err == nil {
		s.dirty = true
	}
	return seg, err
}

func (s *Session) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.store.Delete(id)
	if err == nil {
		s.dirty = true
	}
	return err
}

// RenameSpeaker relabels every segment of oldName and returns the count. The
// new name must survive a save, as with Update.
func (s *Session) RenameSpeaker(oldName, newName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSpeaker(newName); err != nil {
		return 0, err
	}
	n, err := s.store.RenameSpeaker(oldName, newName)
	if n > 0 {
		s.dirty = true
	}
	return n, err
}

func (s *Session) checkSpeaker(name string) error {
	if !s.codec.Preserves(name) {
		return fmt.Errorf("%w: %q cannot be stored in a caption file (no spaces or \": \")", transcript.ErrInvalidSpeaker, transcript.NormalizeSpeaker(name))
	}
	return nil
}

// Save writes the transcript back to the bound caption file.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return ErrNoSource
	}
	if err := s.codec.WriteFile(s.path, s.store.Export()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// ExportEdited writes the transcript to <stem>_edited.srt and returns the
// path. The file goes in dir, or next to the source when dir is empty. A
// trailing "_subtitle" on the source stem is dropped.
func (s *Session) ExportEdited(dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return "", ErrNoSource
	}
	target := EditedPath(s.path, dir)
	if err := s.codec.WriteFile(target, s.store.Export()); err != nil {
		return "", err
	}
	return target, nil
}

// EditedPath returns where ExportEdited writes for a given source file.
func EditedPath(source, dir string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	stem = strings.TrimSuffix(stem, "_subtitle")
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+EditedSuffix)
}

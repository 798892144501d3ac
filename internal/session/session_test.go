package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"

	"vocalsub/internal/srt"
	"vocalsub/internal/transcript"
)

const sample = "1\n00:00:01,000 --> 00:00:02,000\nAlice: Hello.\n\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nBob: Hi there.\n\n" +
	"3\n00:00:05,000 --> 00:00:06,000\nAlice: Bye.\n\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk_subtitle.srt")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenLoadsCaptions(t *testing.T) {
	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Path() != path || s.Dirty() {
		t.Fatalf("unexpected session state path=%q dirty=%v", s.Path(), s.Dirty())
	}
	if got := s.Speakers(); len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("unexpected speakers %v", got)
	}
	if blocks := s.Blocks(); len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.srt")); err == nil {
		t.Fatal("expected error")
	}
}

func TestEditsMarkDirtyAndSave(t *testing.T) {
	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Update(2, transcript.Update{Text: lo.ToPtr("Hi, friend.")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !s.Dirty() {
		t.Fatal("expected dirty after update")
	}
	if n, err := s.RenameSpeaker("Alice", "Host"); err != nil || n != 2 {
		t.Fatalf("RenameSpeaker: n=%d err=%v", n, err)
	}
	if err := s.Delete(3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatal("expected clean after save")
	}

	segments, err := srt.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(segments) != 2 || segments[0].Speaker != "Host" || segments[1].Text != "Hi, friend." {
		t.Fatalf("unexpected saved segments %+v", segments)
	}
}

func TestFailedEditLeavesSessionClean(t *testing.T) {
	s, err := Open(writeSample(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Update(99, transcript.Update{Text: lo.ToPtr("x")}); !errors.Is(err, transcript.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(99); !errors.Is(err, transcript.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n, _ := s.RenameSpeaker("Nobody", "Host"); n != 0 {
		t.Fatalf("expected no renames, got %d", n)
	}
	if s.Dirty() {
		t.Fatal("failed edits must not mark the session dirty")
	}
}

func TestExportEdited(t *testing.T) {
	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	target, err := s.ExportEdited("")
	if err != nil {
		t.Fatalf("ExportEdited: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "talk_edited.srt"); target != want {
		t.Fatalf("expected %q, got %q", want, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sample {
		t.Fatalf("unexpected export:\n%s", data)
	}

	other := t.TempDir()
	target, err = s.ExportEdited(other)
	if err != nil {
		t.Fatalf("ExportEdited: %v", err)
	}
	if filepath.Dir(target) != other {
		t.Fatalf("expected export in %q, got %q", other, target)
	}
}

func TestUnboundSessionCannotSave(t *testing.T) {
	s := New()
	if err := s.Save(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	if _, err := s.ExportEdited(""); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestSpeakerNamesMustSurviveSave(t *testing.T) {
	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n, err := s.RenameSpeaker("Alice", "John Smith"); !errors.Is(err, transcript.ErrInvalidSpeaker) || n != 0 {
		t.Fatalf("expected ErrInvalidSpeaker, got n=%d err=%v", n, err)
	}
	if _, err := s.Update(2, transcript.Update{Speaker: lo.ToPtr("Dr: Who")}); !errors.Is(err, transcript.ErrInvalidSpeaker) {
		t.Fatalf("expected ErrInvalidSpeaker, got %v", err)
	}
	if s.Dirty() {
		t.Fatal("rejected speaker edits must not mark the session dirty")
	}
	if seg, _ := s.Get(2); seg.Speaker != "Bob" {
		t.Fatalf("segment changed after rejected edit: %+v", seg)
	}

	if n, err := s.RenameSpeaker("Alice", "John_Smith"); err != nil || n != 2 {
		t.Fatalf("RenameSpeaker: n=%d err=%v", n, err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seg, _ := reopened.Get(1); seg.Speaker != "John_Smith" {
		t.Fatalf("speaker lost on reload: %+v", seg)
	}
}

func TestReplaceRejectsInvalidTranscript(t *testing.T) {
	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bad := []transcript.Segment{{ID: 1, Start: 2 * time.Second, End: time.Second, Text: "x"}}
	if err := s.Replace("other.srt", bad); !errors.Is(err, transcript.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if s.Path() != path || len(s.Segments()) != 3 {
		t.Fatal("failed replace must leave the session unchanged")
	}
}

func TestConcurrentEdits(t *testing.T) {
	s, err := Open(writeSample(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Update(1+i%3, transcript.Update{Text: lo.ToPtr("edit")})
			_ = s.Blocks()
		}(i)
	}
	wg.Wait()
	for _, seg := range s.Segments() {
		if seg.Text != "edit" {
			t.Fatalf("expected all segments edited, got %+v", seg)
		}
	}
}

func TestEditedPath(t *testing.T) {
	if got := EditedPath("/v/movie.srt", ""); got != "/v/movie_edited.srt" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := EditedPath("/v/movie_subtitle.srt", "/out"); got != "/out/movie_edited.srt" {
		t.Fatalf("unexpected path %q", got)
	}
}

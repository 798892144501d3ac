package transcript

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/samber/lo"
)

func loadedStore(t *testing.T, segments ...Segment) *Store {
	t.Helper()
	store := NewStore()
	if err := store.Load(segments); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func TestStoreLoadSortsAndAssignsIDs(t *testing.T) {
	store := loadedStore(t,
		Segment{ID: 5, Start: sec(4), End: sec(5), Speaker: "B", Text: "later"},
		Segment{Start: sec(0), End: sec(1), Speaker: " A ", Text: "first\nline"},
		Segment{ID: 2, Start: sec(2), End: sec(3), Text: "middle"},
	)

	got := store.Export()
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	if got[0].ID != 6 || got[1].ID != 2 || got[2].ID != 5 {
		t.Fatalf("unexpected order/ids: %+v", got)
	}
	if got[0].Text != "first line" {
		t.Fatalf("expected normalized text, got %q", got[0].Text)
	}
	if got[0].Speaker != "A" {
		t.Fatalf("expected trimmed speaker, got %q", got[0].Speaker)
	}
}

func TestStoreLoadRejectsInvalidInput(t *testing.T) {
	store := loadedStore(t, Segment{ID: 1, Start: 0, End: sec(1), Text: "keep"})

	err := store.Load([]Segment{
		{ID: 1, Start: 0, End: sec(1)},
		{ID: 1, Start: sec(1), End: sec(2)},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	err = store.Load([]Segment{{ID: 1, Start: sec(2), End: sec(1)}})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("failed load changed the store: %d segments", store.Len())
	}
	if seg, _ := store.Get(1); seg.Text != "keep" {
		t.Fatalf("failed load changed segment text: %q", seg.Text)
	}
}

func TestStoreUpdateRejectsInvertedRange(t *testing.T) {
	store := loadedStore(t, Segment{ID: 3, Start: sec(10), End: sec(12), Text: "hello"})

	_, err := store.Update(3, Update{End: lo.ToPtr(sec(9))})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	seg, err := store.Get(3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if seg.End != sec(12) {
		t.Fatalf("end changed after rejected update: %v", seg.End)
	}
}

func TestStoreUpdateAppliesFields(t *testing.T) {
	store := loadedStore(t,
		Segment{ID: 1, Start: sec(0), End: sec(1), Text: "a"},
		Segment{ID: 2, Start: sec(2), End: sec(3), Text: "b"},
	)

	updated, err := store.Update(2, Update{
		Start:   lo.ToPtr(time.Duration(0)),
		Speaker: lo.ToPtr("Guest"),
		Text:    lo.ToPtr("  fixed   text "),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Text != "fixed text" || updated.Speaker != "Guest" {
		t.Fatalf("unexpected updated segment: %+v", updated)
	}
	ids := lo.Map(store.Export(), func(seg Segment, _ int) int { return seg.ID })
	if !slices.Equal(ids, []int{1, 2}) {
		t.Fatalf("expected tie broken by id, got %v", ids)
	}

	if _, err := store.Update(99, Update{Text: lo.ToPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := loadedStore(t,
		Segment{ID: 1, Start: sec(0), End: sec(1)},
		Segment{ID: 2, Start: sec(1), End: sec(2)},
	)
	if err := store.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 segment, got %d", store.Len())
	}
	if err := store.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("failed delete changed the store")
	}
}

func TestStoreRenameSpeaker(t *testing.T) {
	store := loadedStore(t,
		Segment{ID: 1, Start: sec(0), End: sec(1), Speaker: UnknownSpeaker},
		Segment{ID: 2, Start: sec(1), End: sec(2), Speaker: UnknownSpeaker},
		Segment{ID: 3, Start: sec(2), End: sec(3), Speaker: "SPEAKER_00"},
		Segment{ID: 4, Start: sec(3), End: sec(4)},
		Segment{ID: 5, Start: sec(4), End: sec(5), Speaker: UnknownSpeaker},
	)

	count, err := store.RenameSpeaker(UnknownSpeaker, "Host")
	if err != nil {
		t.Fatalf("RenameSpeaker: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 renamed segments, got %d", count)
	}
	if got := store.Speakers(); !slices.Equal(got, []string{"Host", "SPEAKER_00"}) {
		t.Fatalf("unexpected speakers %v", got)
	}

	if count, err := store.RenameSpeaker("Host", "Host"); err != nil || count != 0 {
		t.Fatalf("same-name rename: count=%d err=%v", count, err)
	}
	if count, err := store.RenameSpeaker("missing", "Other"); err != nil || count != 0 {
		t.Fatalf("rename of absent speaker: count=%d err=%v", count, err)
	}
	if _, err := store.RenameSpeaker("Host", "  "); !errors.Is(err, ErrInvalidSpeaker) {
		t.Fatalf("expected ErrInvalidSpeaker, got %v", err)
	}
}

func TestStoreBlocksFollowEdits(t *testing.T) {
	store := loadedStore(t,
		Segment{ID: 1, Start: sec(0), End: sec(1), Speaker: "A"},
		Segment{ID: 2, Start: sec(1), End: sec(2), Speaker: "B"},
		Segment{ID: 3, Start: sec(2), End: sec(3), Speaker: "A"},
	)
	if len(store.Blocks()) != 3 {
		t.Fatalf("expected 3 blocks")
	}
	if _, err := store.Update(2, Update{Speaker: lo.ToPtr("A")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if blocks := store.Blocks(); len(blocks) != 1 || len(blocks[0].Segments) != 3 {
		t.Fatalf("expected one merged block, got %+v", blocks)
	}
}

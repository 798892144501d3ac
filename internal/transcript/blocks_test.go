package transcript

import "testing"

func TestAggregateSplitsOnSpeakerChange(t *testing.T) {
	segments := []Segment{
		{ID: 0, Start: sec(0), End: sec(1), Speaker: "A", Text: "one"},
		{ID: 1, Start: sec(1), End: sec(2), Speaker: "A", Text: "two"},
		{ID: 2, Start: sec(2), End: sec(3), Speaker: "B", Text: "three"},
		{ID: 3, Start: sec(3), End: sec(4), Speaker: "A", Text: "four"},
	}

	blocks := Aggregate(segments)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	wantSpeakers := []string{"A", "B", "A"}
	wantIDs := [][]int{{0, 1}, {2}, {3}}
	for i, block := range blocks {
		if block.Speaker != wantSpeakers[i] {
			t.Fatalf("block %d speaker %q, want %q", i, block.Speaker, wantSpeakers[i])
		}
		if len(block.Segments) != len(wantIDs[i]) {
			t.Fatalf("block %d has %d segments, want %d", i, len(block.Segments), len(wantIDs[i]))
		}
		for j, seg := range block.Segments {
			if seg.ID != wantIDs[i][j] {
				t.Fatalf("block %d segment %d id %d, want %d", i, j, seg.ID, wantIDs[i][j])
			}
		}
	}
	if blocks[0].FullText() != "one two" {
		t.Fatalf("unexpected full text %q", blocks[0].FullText())
	}
	if blocks[0].StartTime() != 0 || blocks[0].EndTime() != sec(2) {
		t.Fatalf("unexpected block bounds %v-%v", blocks[0].StartTime(), blocks[0].EndTime())
	}
}

func TestAggregateTreatsUnsetAsUnknown(t *testing.T) {
	blocks := Aggregate([]Segment{
		{ID: 1, Text: "a"},
		{ID: 2, Speaker: UnknownSpeaker, Text: "b"},
		{ID: 3, Text: "c"},
	})
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	if blocks[0].Speaker != UnknownSpeaker {
		t.Fatalf("unexpected speaker %q", blocks[0].Speaker)
	}
}

func TestAggregateEmpty(t *testing.T) {
	blocks := Aggregate(nil)
	if blocks == nil || len(blocks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", blocks)
	}
	var empty SpeakerBlock
	if empty.StartTime() != 0 || empty.EndTime() != 0 || empty.FullText() != "" {
		t.Fatal("expected zero values for empty block")
	}
}

package transcript

// AssignSpeakers labels each segment with the speaker of the first turn whose
// interval contains the segment midpoint. Turns are scanned in the order given
// and may overlap; the first match wins. Segments matching no turn get
// UnknownSpeaker. The inputs are not modified.
func AssignSpeakers(turns []SpeakerTurn, segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		mid := seg.Midpoint()
		seg.Speaker = UnknownSpeaker
		for _, turn := range turns {
			if turn.Start <= mid && mid <= turn.End {
				seg.Speaker = turn.Speaker
				break
			}
		}
		out[i] = seg
	}
	return out
}

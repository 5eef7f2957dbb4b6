package entities

import "sort"

// TicketRange is the contiguous, inclusive slice of the ticket index space owned by one participant
type TicketRange struct {
	Ordinal    int64   `json:"ordinal"`
	Address    Address `json:"address"`
	StartIndex int64   `json:"start_index"`
	EndIndex   int64   `json:"end_index"`
}

// Contains reports whether index falls inside the range
func (r TicketRange) Contains(index int64) bool {
	return index >= r.StartIndex && index <= r.EndIndex
}

// Size is the number of tickets in the range
func (r TicketRange) Size() int64 {
	return r.EndIndex - r.StartIndex + 1
}

// ComputeTicketRanges walks participants in first-participation order and assigns each a
// contiguous range. The result exactly covers [0, sum(ticketCount)). Participants without
// tickets own no range.
func ComputeTicketRanges(participants []*Participant) []TicketRange {
	ordered := make([]*Participant, len(participants))
	copy(ordered, participants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})

	ranges := make([]TicketRange, 0, len(ordered))
	var next int64
	for _, p := range ordered {
		if p.TicketCount <= 0 {
			continue
		}
		ranges = append(ranges, TicketRange{
			Ordinal:    p.Ordinal,
			Address:    p.Address,
			StartIndex: next,
			EndIndex:   next + p.TicketCount - 1,
		})
		next += p.TicketCount
	}
	return ranges
}

// FindTicketRange binary-searches ranges (as produced by ComputeTicketRanges) for the one
// containing index
func FindTicketRange(ranges []TicketRange, index int64) (TicketRange, error) {
	i := sort.Search(len(ranges), func(i int) bool {
		return ranges[i].EndIndex >= index
	})
	if i == len(ranges) || !ranges[i].Contains(index) {
		return TicketRange{}, NewLedgerError(CodeInvalidTicketIndex, "ticket index %d is outside every range", index)
	}
	return ranges[i], nil
}

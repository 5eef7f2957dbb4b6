package entities

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTicketRanges(t *testing.T) {
	t.Parallel()

	a := Address("0x00000000000000000000000000000000000000aa")
	b := Address("0x00000000000000000000000000000000000000bb")
	c := Address("0x00000000000000000000000000000000000000cc")

	t.Run("ordered by first participation", func(t *testing.T) {
		t.Parallel()

		participants := []*Participant{
			{Address: b, Ordinal: 1, TicketCount: 5000},
			{Address: a, Ordinal: 0, TicketCount: 10000},
			{Address: c, Ordinal: 2, TicketCount: 1},
		}

		ranges := ComputeTicketRanges(participants)
		require.Len(t, ranges, 3)
		assert.Equal(t, TicketRange{Ordinal: 0, Address: a, StartIndex: 0, EndIndex: 9999}, ranges[0])
		assert.Equal(t, TicketRange{Ordinal: 1, Address: b, StartIndex: 10000, EndIndex: 14999}, ranges[1])
		assert.Equal(t, TicketRange{Ordinal: 2, Address: c, StartIndex: 15000, EndIndex: 15000}, ranges[2])
	})

	t.Run("empty ledger has no ranges", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, ComputeTicketRanges(nil))
	})

	t.Run("does not reorder caller slice", func(t *testing.T) {
		t.Parallel()

		participants := []*Participant{
			{Address: b, Ordinal: 1, TicketCount: 2},
			{Address: a, Ordinal: 0, TicketCount: 3},
		}
		ComputeTicketRanges(participants)
		assert.Equal(t, b, participants[0].Address)
	})
}

func TestComputeTicketRanges_Partition(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.IntN(40)
		participants := make([]*Participant, n)
		var total int64
		for i := range participants {
			count := 1 + rng.Int64N(500)
			total += count
			participants[i] = &Participant{Ordinal: int64(i), TicketCount: count}
		}

		ranges := ComputeTicketRanges(participants)
		require.Len(t, ranges, n)

		var next int64
		for i, r := range ranges {
			assert.Equal(t, next, r.StartIndex, "trial %d range %d has a gap or overlap", trial, i)
			assert.Equal(t, participants[i].TicketCount, r.Size())
			next = r.EndIndex + 1
		}
		assert.Equal(t, total, next)

		// every index resolves to exactly the range that contains it
		for _, index := range []int64{0, total - 1, rng.Int64N(total)} {
			found, err := FindTicketRange(ranges, index)
			require.NoError(t, err)
			assert.True(t, found.Contains(index))
		}
	}
}

func TestFindTicketRange(t *testing.T) {
	t.Parallel()

	ranges := []TicketRange{
		{Ordinal: 0, StartIndex: 0, EndIndex: 9},
		{Ordinal: 1, StartIndex: 10, EndIndex: 10},
		{Ordinal: 2, StartIndex: 11, EndIndex: 29},
	}

	tests := []struct {
		name        string
		index       int64
		wantOrdinal int64
		wantErr     bool
	}{
		{"first index", 0, 0, false},
		{"end of first range", 9, 0, false},
		{"single ticket range", 10, 1, false},
		{"last index", 29, 2, false},
		{"past the end", 30, 0, true},
		{"negative", -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FindTicketRange(ranges, tt.index)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTicketIndex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrdinal, got.Ordinal)
		})
	}
}

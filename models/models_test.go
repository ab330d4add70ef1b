package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaffle_StatusGates(t *testing.T) {
	tests := []struct {
		status      RaffleStatus
		allocations bool
		draws       bool
	}{
		{RaffleDraft, false, false},
		{RaffleActive, true, true},
		{RaffleEnded, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := &Raffle{Status: tt.status}
			assert.Equal(t, tt.allocations, r.AcceptsAllocations())
			assert.Equal(t, tt.draws, r.AcceptsDraws())
		})
	}
}

func TestStats_Consistent(t *testing.T) {
	s := &Stats{
		Total:      5,
		Assigned:   3,
		Unassigned: 2,
		PerArtist:  map[string]int{"a": 2, "b": 1, "c": 0},
		Winners:    map[string]string{"a": "t1"},
	}
	assert.True(t, s.Consistent())
	assert.Equal(t, 1, s.ConfirmedWinners())

	s.PerArtist["c"] = 1
	assert.False(t, s.Consistent(), "per artist sum must match assigned")

	s.PerArtist["c"] = 0
	s.Unassigned = 3
	assert.False(t, s.Consistent(), "buckets must add up to total")
}

func TestAllocation_Count(t *testing.T) {
	a := &Allocation{Assigned: map[string][]Ticket{
		"a": {{ID: "t1"}, {ID: "t2"}},
		"b": {{ID: "t3"}},
	}}
	assert.Equal(t, 3, a.Count())
	assert.Equal(t, 0, (&Allocation{}).Count())
}

func TestTicket_Helpers(t *testing.T) {
	tickets := []Ticket{{ID: "t2", ArtistID: "a"}, {ID: "t1"}}

	assert.True(t, tickets[0].IsAssigned())
	assert.False(t, tickets[1].IsAssigned())
	assert.Equal(t, []string{"t2", "t1"}, TicketIDs(tickets))
	assert.False(t, (&RaffleArtist{}).HasWinner())
}

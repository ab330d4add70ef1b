package models

type Stats struct {
	RaffleID   string            `json:"raffle_id"`
	Total      int               `json:"total"`
	Assigned   int               `json:"assigned"`
	Unassigned int               `json:"unassigned"`
	PerArtist  map[string]int    `json:"per_artist"`
	Winners    map[string]string `json:"winners"` // artist id -> winning ticket id
}

// ConfirmedWinners is the number of artists with a committed winner.
func (s *Stats) ConfirmedWinners() int {
	return len(s.Winners)
}

// Consistent reports whether the independently counted buckets add up.
func (s *Stats) Consistent() bool {
	if s.Assigned+s.Unassigned != s.Total {
		return false
	}
	sum := 0
	for _, n := range s.PerArtist {
		sum += n
	}
	return sum == s.Assigned
}

type ParticipantStats struct {
	ParticipantID string         `json:"participant_id"`
	RaffleID      string         `json:"raffle_id"`
	Owned         int            `json:"owned"`
	Assigned      int            `json:"assigned"`
	Unassigned    int            `json:"unassigned"`
	PerArtist     map[string]int `json:"per_artist"`
	Tickets       []Ticket       `json:"tickets"`
}

// Allocation is the outcome of one committed allocation request.
type Allocation struct {
	RaffleID      string              `json:"raffle_id"`
	ParticipantID string              `json:"participant_id"`
	Assigned      map[string][]Ticket `json:"assigned"`
	Remaining     int                 `json:"remaining_unassigned"`
}

func (a *Allocation) Count() int {
	n := 0
	for _, ts := range a.Assigned {
		n += len(ts)
	}
	return n
}

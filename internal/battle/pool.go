package battle

import "fmt"

// DefaultPoolCapacity is the standard bracket layout of eight coins per pool.
const DefaultPoolCapacity = 8

const (
	// ReasonLastContestant is the sentinel reason for a pool of one, which
	// is won without consulting a judge.
	ReasonLastContestant = "Last contestant standing"
	// ReasonFinalWinner marks the winner of the synthesized terminal round.
	ReasonFinalWinner = "Final Winner"
)

// FinalRoundName labels the synthesized single-winner round.
const FinalRoundName = "Winner"

// Pool is a fixed-capacity group of candidates judged together in one round.
// Once judged, Winners and Losers form a disjoint partition of Candidates
// with len(Winners) == RequiredWinners().
type Pool struct {
	Index      int               `json:"id"`
	Candidates []Candidate       `json:"cryptos"`
	Winners    []JudgedCandidate `json:"winners,omitempty"`
	Losers     []JudgedCandidate `json:"losers,omitempty"`
}

func (p *Pool) Judged() bool {
	return len(p.Winners) > 0
}

// RequiredWinners is how many candidates survive this pool: half, rounded up.
func (p *Pool) RequiredWinners() int {
	return (len(p.Candidates) + 1) / 2
}

func (p *Pool) clone() Pool {
	c := Pool{Index: p.Index}
	c.Candidates = append([]Candidate(nil), p.Candidates...)
	c.Winners = append([]JudgedCandidate(nil), p.Winners...)
	c.Losers = append([]JudgedCandidate(nil), p.Losers...)
	return c
}

// Round is one full layer of pools. The next round is only built once every
// pool here has an outcome.
type Round struct {
	Name  string `json:"name"`
	Pools []Pool `json:"pools"`
}

func (r *Round) Complete() bool {
	if len(r.Pools) == 0 {
		return false
	}
	for i := range r.Pools {
		if !r.Pools[i].Judged() {
			return false
		}
	}
	return true
}

func (r *Round) clone() Round {
	c := Round{Name: r.Name, Pools: make([]Pool, len(r.Pools))}
	for i := range r.Pools {
		c.Pools[i] = r.Pools[i].clone()
	}
	return c
}

// RoundName labels a round by its field size: "Round of 64" down to
// "Final 8", "Final 4" and so on.
func RoundName(size int) string {
	if size <= DefaultPoolCapacity {
		return fmt.Sprintf("Final %d", size)
	}
	return fmt.Sprintf("Round of %d", size)
}

// CollectWinners gathers every winner of a completed round in pool-index
// order, keeping the intra-pool order the judge returned. This order seeds
// the next round's pools and feeds the identity hash, so it must stay
// deterministic.
func CollectWinners(r *Round) []Candidate {
	var winners []Candidate
	for i := range r.Pools {
		for _, w := range r.Pools[i].Winners {
			winners = append(winners, w.Coin)
		}
	}
	return winners
}

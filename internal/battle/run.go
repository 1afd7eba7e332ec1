package battle

// JudgeRun is one judge's independent progression through elimination rounds
// to a single winner. Each judge mutates only its own run; runs never share
// pool state.
type JudgeRun struct {
	JudgeID string  `json:"judgeId"`
	Rounds  []Round `json:"rounds"`
	Current int     `json:"currentRound"`
	Failed  bool    `json:"failed,omitempty"`
	Err     string  `json:"error,omitempty"`
}

// NewJudgeRun builds a run starting from a fresh partition of candidates.
// Every judge starts from the same layout, but each call copies the
// candidates so runs stay structurally independent.
func NewJudgeRun(judgeID string, candidates []Candidate, capacity int) *JudgeRun {
	return &JudgeRun{
		JudgeID: judgeID,
		Rounds: []Round{{
			Name:  RoundName(len(candidates)),
			Pools: Partition(candidates, capacity),
		}},
	}
}

// ActiveRound returns the round the run is currently judging.
func (jr *JudgeRun) ActiveRound() *Round {
	if jr.Current < 0 || jr.Current >= len(jr.Rounds) {
		return nil
	}
	return &jr.Rounds[jr.Current]
}

// Terminal reports whether the run has reached its end state: the current
// round holds exactly one pool with exactly one candidate that has been
// declared its winner.
func (jr *JudgeRun) Terminal() bool {
	r := jr.ActiveRound()
	if r == nil || len(r.Pools) != 1 {
		return false
	}
	p := &r.Pools[0]
	return len(p.Candidates) == 1 && p.Judged()
}

// Winner returns the run's ultimate winner, or nil while the run is still in
// progress or has failed.
func (jr *JudgeRun) Winner() *Candidate {
	if !jr.Terminal() {
		return nil
	}
	coin := jr.Rounds[jr.Current].Pools[0].Winners[0].Coin
	return &coin
}

func (jr *JudgeRun) Clone() *JudgeRun {
	c := *jr
	c.Rounds = make([]Round, len(jr.Rounds))
	for i := range jr.Rounds {
		c.Rounds[i] = jr.Rounds[i].clone()
	}
	return &c
}

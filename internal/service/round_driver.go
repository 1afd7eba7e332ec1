package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/battleofcoins/battle-of-coins/internal/judge"
)

// ErrNoWinners flags a completed round that yielded zero winners. Every pool
// always yields at least one winner, so this is an invariant violation and
// fails the run rather than looping silently.
var ErrNoWinners = errors.New("round produced no winners")

type poolResult struct {
	verdict judge.Verdict
	err     error
}

// advanceRound drives every unjudged pool of the run's current round through
// the judge concurrently (fan-out), waits for all of them to settle (fan-in)
// and then either builds the next round from the collected winners or
// synthesizes the terminal round.
//
// The oracle calls run on pool copies without the lock held; outcomes are
// applied under the write lock so snapshots never observe a half-judged
// round. Returns the next round index, or nil once the run is terminal.
func (o *Orchestrator) advanceRound(ctx context.Context, run *battle.JudgeRun, criterion string) (*int, error) {
	o.mu.RLock()
	cur := run.Current
	round := run.Rounds[cur]
	pools := make([]battle.Pool, len(round.Pools))
	for i := range round.Pools {
		pools[i] = round.Pools[i]
		pools[i].Candidates = append([]battle.Candidate(nil), round.Pools[i].Candidates...)
	}
	o.mu.RUnlock()

	results := make([]poolResult, len(pools))
	var wg sync.WaitGroup
	for i := range pools {
		if pools[i].Judged() {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			verdict, err := o.judge.Judge(ctx, run.JudgeID, pools[i], criterion)
			results[i] = poolResult{verdict: verdict, err: err}
		}(i)
	}
	wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()

	current := &run.Rounds[cur]
	var failed int
	var firstErr error
	for i := range current.Pools {
		if current.Pools[i].Judged() {
			continue
		}
		if results[i].err != nil {
			failed++
			if firstErr == nil {
				firstErr = results[i].err
			}
			continue
		}
		current.Pools[i].Winners = results[i].verdict.Winners
		current.Pools[i].Losers = results[i].verdict.Losers
	}
	if failed > 0 {
		return nil, fmt.Errorf("round %q: %d of %d pools failed: %w", current.Name, failed, len(current.Pools), firstErr)
	}

	winners := battle.CollectWinners(current)
	switch len(winners) {
	case 0:
		return nil, ErrNoWinners
	case 1:
		// Synthesized terminal round: the sole survivor is declared the
		// winner with no further judging.
		run.Rounds = append(run.Rounds, battle.Round{
			Name: battle.FinalRoundName,
			Pools: []battle.Pool{{
				Index:      0,
				Candidates: winners,
				Winners:    []battle.JudgedCandidate{{Coin: winners[0], Reason: battle.ReasonFinalWinner}},
			}},
		})
		run.Current++
		return nil, nil
	default:
		run.Rounds = append(run.Rounds, battle.Round{
			Name:  battle.RoundName(len(winners)),
			Pools: battle.Partition(winners, o.capacity),
		})
		run.Current++
		next := run.Current
		return &next, nil
	}
}

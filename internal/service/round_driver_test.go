package service

import (
	"context"
	"testing"
	"time"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBattle(t *testing.T, script *modelScript, candidates []battle.Candidate, judgeIDs ...string) *battle.Tournament {
	t.Helper()
	orch := newTestOrchestrator(t, script, nil, judgeIDs...)

	id, err := orch.Start(context.Background(), StartParams{
		Candidates: candidates,
		Criterion:  "most likely to endure",
		JudgeIDs:   judgeIDs,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, orch.Wait(ctx, id))

	snap, err := orch.Snapshot(id)
	require.NoError(t, err)
	return snap
}

func nineCandidateScript() *modelScript {
	// Nine candidates split into a pool of eight and a leftover pool of one.
	// Only the full pool consults the oracle each round; the singleton
	// advances on its own.
	return &modelScript{replies: map[string][]string{
		"gpt-x": {
			verdict([]string{"C1", "C2", "C3", "C4"}, []string{"C5", "C6", "C7", "C8"}),
			verdict([]string{"C1", "C2", "C9"}, []string{"C3", "C4"}),
			verdict([]string{"C1", "C9"}, []string{"C2"}),
			verdict([]string{"C9"}, []string{"C1"}),
		},
	}}
}

func TestNineCandidatesTerminateWithinLogBound(t *testing.T) {
	candidates := makeCoins("C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9")
	snap := runBattle(t, nineCandidateScript(), candidates, "gpt-x")

	run := snap.Runs["gpt-x"]
	require.NotNil(t, run)
	require.True(t, run.Terminal())

	// ceil(log2(9)) judged rounds plus the synthesized terminal round.
	require.Len(t, run.Rounds, 5)
	assert.Equal(t, "Round of 9", run.Rounds[0].Name)
	assert.Equal(t, "Final 5", run.Rounds[1].Name)
	assert.Equal(t, battle.FinalRoundName, run.Rounds[4].Name)

	winner := run.Winner()
	require.NotNil(t, winner)
	assert.Equal(t, "C9", winner.Ticker)
}

func TestSingletonPoolAdvancesWithoutOracle(t *testing.T) {
	candidates := makeCoins("C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9")
	snap := runBattle(t, nineCandidateScript(), candidates, "gpt-x")

	run := snap.Runs["gpt-x"]
	require.NotNil(t, run)

	firstRound := run.Rounds[0]
	require.Len(t, firstRound.Pools, 2)
	leftover := firstRound.Pools[1]
	require.Len(t, leftover.Candidates, 1)
	require.Len(t, leftover.Winners, 1)
	assert.Equal(t, "C9", leftover.Winners[0].Coin.Ticker)
	assert.Equal(t, battle.ReasonLastContestant, leftover.Winners[0].Reason)
	assert.Empty(t, leftover.Losers)

	// The leftover joins the oracle-judged winners in the next round.
	second := run.Rounds[1].Pools[0]
	tickers := make([]string, 0, len(second.Candidates))
	for _, c := range second.Candidates {
		tickers = append(tickers, c.Ticker)
	}
	assert.Equal(t, []string{"C1", "C2", "C3", "C4", "C9"}, tickers)
}

func TestIdenticalBattlesShareIdentity(t *testing.T) {
	candidates := makeCoins("C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9")

	first := runBattle(t, nineCandidateScript(), candidates, "gpt-x")
	second := runBattle(t, nineCandidateScript(), candidates, "gpt-x")

	require.NotEmpty(t, first.Identity)
	assert.Equal(t, first.Identity, second.Identity)
	assert.NotEqual(t, first.ID, second.ID, "handles stay unique even when outcomes repeat")
	assert.Equal(t, first.Runs["gpt-x"].Rounds, second.Runs["gpt-x"].Rounds)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestDifferentOutcomeDifferentIdentity(t *testing.T) {
	candidates := makeCoins("A", "B")

	first := runBattle(t, &modelScript{replies: map[string][]string{
		"gpt-x": {verdict([]string{"A"}, []string{"B"})},
	}}, candidates, "gpt-x")
	second := runBattle(t, &modelScript{replies: map[string][]string{
		"gpt-x": {verdict([]string{"B"}, []string{"A"})},
	}}, candidates, "gpt-x")

	assert.NotEqual(t, first.Identity, second.Identity)
}

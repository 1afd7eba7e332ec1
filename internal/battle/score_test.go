package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coin(ticker string) Candidate {
	return Candidate{ID: ticker, Name: ticker, Ticker: ticker}
}

func coins(tickers ...string) []Candidate {
	out := make([]Candidate, len(tickers))
	for i, tk := range tickers {
		out[i] = coin(tk)
	}
	return out
}

// runFromRounds builds a fully judged run with one pool per round: each
// entry of winnersByRound names the winners of that round, and the run ends
// with the synthesized terminal round.
func runFromRounds(t *testing.T, judgeID string, candidates []Candidate, winnersByRound [][]string) *JudgeRun {
	t.Helper()

	byTicker := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byTicker[c.Ticker] = c
	}

	run := &JudgeRun{JudgeID: judgeID}
	current := candidates
	for _, tickers := range winnersByRound {
		pool := Pool{Candidates: current}
		for _, tk := range tickers {
			c, ok := byTicker[tk]
			require.True(t, ok, "unknown ticker %s", tk)
			pool.Winners = append(pool.Winners, JudgedCandidate{Coin: c, Reason: "survived"})
		}
		for _, c := range current {
			won := false
			for _, w := range pool.Winners {
				if w.Coin.Ticker == c.Ticker {
					won = true
					break
				}
			}
			if !won {
				pool.Losers = append(pool.Losers, JudgedCandidate{Coin: c, Reason: "eliminated"})
			}
		}
		run.Rounds = append(run.Rounds, Round{Name: RoundName(len(current)), Pools: []Pool{pool}})
		current = coins(tickers...)
	}

	require.Len(t, current, 1, "winner sequence must funnel down to one candidate")
	run.Rounds = append(run.Rounds, Round{
		Name: FinalRoundName,
		Pools: []Pool{{
			Candidates: current,
			Winners:    []JudgedCandidate{{Coin: current[0], Reason: ReasonFinalWinner}},
		}},
	})
	run.Current = len(run.Rounds) - 1
	return run
}

func TestScoreTwoJudgeScenario(t *testing.T) {
	candidates := coins("BTC", "ETH", "SOL", "ADA", "DOGE", "XRP", "LTC", "NEO")

	runs := map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", candidates, [][]string{
			{"BTC", "ETH", "SOL", "ADA"},
			{"BTC", "ETH"},
			{"ETH"},
		}),
		"gpt-b": runFromRounds(t, "gpt-b", candidates, [][]string{
			{"BTC", "DOGE", "ETH", "XRP"},
			{"BTC", "DOGE"},
			{"BTC"},
		}),
	}
	order := []string{"gpt-a", "gpt-b"}

	board := Score(runs, order)

	// BTC: two pool wins under gpt-a, four under gpt-b (including the
	// terminal round), plus gpt-b's winner bonus.
	expected := map[string]int{
		"BTC":  2 + 4 + 2,
		"ETH":  4 + 2 + 1,
		"SOL":  1,
		"ADA":  1,
		"DOGE": 2,
		"XRP":  1,
	}
	for ticker, want := range expected {
		e, ok := board.Get(ticker)
		require.True(t, ok, "missing score for %s", ticker)
		assert.Equal(t, want, e.Score, "score for %s", ticker)
	}
	_, ok := board.Get("LTC")
	assert.False(t, ok, "LTC never won a pool")

	winner := board.GlobalWinner()
	require.NotNil(t, winner)
	assert.Equal(t, "BTC", winner.Coin.Ticker)
	assert.Equal(t, 8, winner.Score)
}

func TestTopNStableOrder(t *testing.T) {
	candidates := coins("BTC", "ETH", "SOL", "ADA", "DOGE", "XRP", "LTC", "NEO")
	runs := map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", candidates, [][]string{
			{"BTC", "ETH", "SOL", "ADA"},
			{"BTC", "ETH"},
			{"ETH"},
		}),
		"gpt-b": runFromRounds(t, "gpt-b", candidates, [][]string{
			{"BTC", "DOGE", "ETH", "XRP"},
			{"BTC", "DOGE"},
			{"BTC"},
		}),
	}
	board := Score(runs, []string{"gpt-a", "gpt-b"})

	top := board.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, "BTC", top[0].Coin.Ticker)
	assert.Equal(t, "ETH", top[1].Coin.Ticker)
	assert.Equal(t, "DOGE", top[2].Coin.Ticker)

	// SOL, ADA and XRP all sit at one point; they must keep the order they
	// were first scored in.
	all := board.TopN(10)
	require.Len(t, all, 6)
	assert.Equal(t, "SOL", all[3].Coin.Ticker)
	assert.Equal(t, "ADA", all[4].Coin.Ticker)
	assert.Equal(t, "XRP", all[5].Coin.Ticker)
}

func TestGlobalWinnerTieBreaksOnFirstScored(t *testing.T) {
	pair := coins("XXX", "YYY")
	runs := map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", pair, [][]string{{"XXX"}}),
		"gpt-b": runFromRounds(t, "gpt-b", pair, [][]string{{"YYY"}}),
	}

	board := Score(runs, []string{"gpt-a", "gpt-b"})
	x, _ := board.Get("XXX")
	y, _ := board.Get("YYY")
	require.Equal(t, x.Score, y.Score, "scenario must tie for the tie-break to matter")

	winner := board.GlobalWinner()
	require.NotNil(t, winner)
	assert.Equal(t, "XXX", winner.Coin.Ticker, "first-scored ticker wins ties")

	// Reversing judge order flips which ticker is scored first.
	board = Score(runs, []string{"gpt-b", "gpt-a"})
	winner = board.GlobalWinner()
	require.NotNil(t, winner)
	assert.Equal(t, "YYY", winner.Coin.Ticker)
}

func TestScoreExcludesFailedRuns(t *testing.T) {
	candidates := coins("BTC", "ETH")
	good := runFromRounds(t, "gpt-a", candidates, [][]string{{"BTC"}})
	bad := runFromRounds(t, "gpt-b", candidates, [][]string{{"ETH"}})
	bad.Failed = true
	bad.Err = "oracle gave up"

	board := Score(map[string]*JudgeRun{"gpt-a": good, "gpt-b": bad}, []string{"gpt-a", "gpt-b"})

	_, ok := board.Get("ETH")
	assert.False(t, ok, "failed runs must not contribute points")
	winner := board.GlobalWinner()
	require.NotNil(t, winner)
	assert.Equal(t, "BTC", winner.Coin.Ticker)
}

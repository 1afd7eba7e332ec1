package battle

import "sort"

// ScoreEntry is one candidate's aggregate score across every judge run.
type ScoreEntry struct {
	Coin  Candidate `json:"coin"`
	Score int       `json:"score"`
}

// Scoreboard holds per-ticker scores plus the order tickers were first
// scored in. That insertion order is the tie-break everywhere: it is a
// deliberately simple, reproducible policy, not a statistical one.
type Scoreboard struct {
	entries map[string]ScoreEntry
	order   []string
}

// Score tallies survival points: one point per pool won in any round of any
// judge run, plus a two point bonus for winning a run outright. Failed runs
// are excluded. Runs are walked in judgeOrder so insertion order is stable.
func Score(runs map[string]*JudgeRun, judgeOrder []string) *Scoreboard {
	b := &Scoreboard{entries: make(map[string]ScoreEntry)}

	for _, id := range judgeOrder {
		run, ok := runs[id]
		if !ok || run.Failed {
			continue
		}
		for ri := range run.Rounds {
			for pi := range run.Rounds[ri].Pools {
				for _, w := range run.Rounds[ri].Pools[pi].Winners {
					b.add(w.Coin, 1)
				}
			}
		}
		if w := run.Winner(); w != nil {
			b.add(*w, 2)
		}
	}
	return b
}

func (b *Scoreboard) add(coin Candidate, points int) {
	e, ok := b.entries[coin.Ticker]
	if !ok {
		e = ScoreEntry{Coin: coin}
		b.order = append(b.order, coin.Ticker)
	}
	e.Score += points
	b.entries[coin.Ticker] = e
}

func (b *Scoreboard) Get(ticker string) (ScoreEntry, bool) {
	e, ok := b.entries[ticker]
	return e, ok
}

// Entries returns a copy of the score map for serialization.
func (b *Scoreboard) Entries() map[string]ScoreEntry {
	out := make(map[string]ScoreEntry, len(b.entries))
	for k, v := range b.entries {
		out[k] = v
	}
	return out
}

// GlobalWinner is the highest-scoring candidate; ties go to whichever ticker
// was scored first.
func (b *Scoreboard) GlobalWinner() *ScoreEntry {
	var winner *ScoreEntry
	for _, ticker := range b.order {
		e := b.entries[ticker]
		if winner == nil || e.Score > winner.Score {
			w := e
			winner = &w
		}
	}
	return winner
}

// TopN returns the n highest scores, descending, with ties broken by the
// same first-scored order.
func (b *Scoreboard) TopN(n int) []ScoreEntry {
	ranked := make([]ScoreEntry, 0, len(b.order))
	for _, ticker := range b.order {
		ranked = append(ranked, b.entries[ticker])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

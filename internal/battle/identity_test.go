package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityIgnoresCandidateMetadata(t *testing.T) {
	plain := coins("BTC", "ETH", "SOL", "ADA")
	fancy := []Candidate{
		{ID: "bitcoin", Name: "Bitcoin", Ticker: "BTC", LogoLocal: "logos/btc.png"},
		{ID: "ethereum", Name: "Ethereum", Ticker: "ETH", LogoLocal: "logos/eth.png"},
		{ID: "solana", Name: "Solana", Ticker: "SOL", LogoLocal: "logos/sol.png"},
		{ID: "cardano", Name: "Cardano", Ticker: "ADA", LogoLocal: "logos/ada.png"},
	}

	rounds := [][]string{{"BTC", "ETH"}, {"ETH"}}
	order := []string{"gpt-a"}

	a := Identity(map[string]*JudgeRun{"gpt-a": runFromRounds(t, "gpt-a", plain, rounds)}, order)
	b := Identity(map[string]*JudgeRun{"gpt-a": runFromRounds(t, "gpt-a", fancy, rounds)}, order)

	require.NotEmpty(t, a)
	assert.Equal(t, a, b, "identity depends only on winner ticker sequences")
}

func TestIdentityChangesWithOutcome(t *testing.T) {
	candidates := coins("BTC", "ETH", "SOL", "ADA")
	order := []string{"gpt-a"}

	a := Identity(map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", candidates, [][]string{{"BTC", "ETH"}, {"ETH"}}),
	}, order)
	b := Identity(map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", candidates, [][]string{{"BTC", "SOL"}, {"SOL"}}),
	}, order)

	assert.NotEqual(t, a, b)
}

func TestIdentityStableAcrossCalls(t *testing.T) {
	candidates := coins("BTC", "ETH", "SOL", "ADA")
	runs := map[string]*JudgeRun{
		"gpt-a": runFromRounds(t, "gpt-a", candidates, [][]string{{"BTC", "ETH"}, {"BTC"}}),
		"gpt-b": runFromRounds(t, "gpt-b", candidates, [][]string{{"SOL", "ADA"}, {"ADA"}}),
	}
	order := []string{"gpt-a", "gpt-b"}

	assert.Equal(t, Identity(runs, order), Identity(runs, order))
}

func TestIdentitySeparatesJudges(t *testing.T) {
	candidates := coins("BTC", "ETH")
	run := runFromRounds(t, "gpt-a", candidates, [][]string{{"BTC"}})

	a := Identity(map[string]*JudgeRun{"gpt-a": run}, []string{"gpt-a"})
	b := Identity(map[string]*JudgeRun{"gpt-b": run}, []string{"gpt-b"})

	assert.NotEqual(t, a, b, "the judge identifier is part of the traversal")
}

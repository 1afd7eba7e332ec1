package battle

import (
	"time"

	"github.com/google/uuid"
)

type BattleStatus string

const (
	BattleRunning   BattleStatus = "running"
	BattleCompleted BattleStatus = "completed"
)

// Tournament is the full multi-judge battle over one candidate set and one
// criterion prompt. While running it is owned and mutated exclusively by the
// orchestrator; once completed it is frozen, content-addressed by Identity
// and handed to the store.
type Tournament struct {
	ID           uuid.UUID             `json:"battleId"`
	Identity     string                `json:"id,omitempty"`
	Prompt       string                `json:"prompt"`
	Candidates   []Candidate           `json:"candidates"`
	JudgeOrder   []string              `json:"models"`
	Runs         map[string]*JudgeRun  `json:"modelResults"`
	CreatedAt    time.Time             `json:"date"`
	Status       BattleStatus          `json:"status"`
	Scores       map[string]ScoreEntry `json:"scores,omitempty"`
	GlobalWinner *ScoreEntry           `json:"globalWinner,omitempty"`
	Summary      string                `json:"summary,omitempty"`
}

// Clone deep-copies the tournament so callers can render a snapshot while
// the orchestrator keeps mutating the live state.
func (t *Tournament) Clone() *Tournament {
	c := *t
	c.Candidates = append([]Candidate(nil), t.Candidates...)
	c.JudgeOrder = append([]string(nil), t.JudgeOrder...)
	c.Runs = make(map[string]*JudgeRun, len(t.Runs))
	for id, run := range t.Runs {
		c.Runs[id] = run.Clone()
	}
	if t.Scores != nil {
		c.Scores = make(map[string]ScoreEntry, len(t.Scores))
		for k, v := range t.Scores {
			c.Scores[k] = v
		}
	}
	if t.GlobalWinner != nil {
		w := *t.GlobalWinner
		c.GlobalWinner = &w
	}
	return &c
}

// Results is the persisted outcome document: per-model round history with
// reasons, aggregate scores and the global winner. Loading it back replays
// the battle verbatim with no recomputation.
type Results struct {
	ModelResults map[string]ModelResult `json:"modelResults"`
	Scores       map[string]ScoreEntry  `json:"scores"`
	GlobalWinner *ScoreEntry            `json:"globalWinner,omitempty"`
}

type ModelResult struct {
	Rounds []Round    `json:"rounds"`
	Winner *Candidate `json:"winner,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// NewResults builds the storable outcome document from a completed
// tournament.
func NewResults(t *Tournament) *Results {
	r := &Results{
		ModelResults: make(map[string]ModelResult, len(t.Runs)),
		Scores:       t.Scores,
		GlobalWinner: t.GlobalWinner,
	}
	for _, id := range t.JudgeOrder {
		run, ok := t.Runs[id]
		if !ok {
			continue
		}
		mr := ModelResult{Rounds: run.Rounds, Winner: run.Winner()}
		if run.Failed {
			mr.Error = run.Err
		}
		r.ModelResults[id] = mr
	}
	return r
}

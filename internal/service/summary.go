package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/google/uuid"
)

const summarySystemPrompt = "You are a crypto battle analyst. You write short, engaging recaps of cryptocurrency battles."

// Summarize asks the first selected judge for a 4-5 sentence recap of a
// completed battle and stores it on the saved record. The summary is cosmetic;
// failures here never touch the battle outcome.
func (o *Orchestrator) Summarize(ctx context.Context, id uuid.UUID) (string, error) {
	o.mu.RLock()
	lb, ok := o.battles[id]
	if !ok {
		o.mu.RUnlock()
		return "", ErrBattleNotFound
	}
	if lb.t.Status != battle.BattleCompleted {
		o.mu.RUnlock()
		return "", ErrBattleRunning
	}
	t := lb.t.Clone()
	o.mu.RUnlock()

	model := t.JudgeOrder[0]
	summary, err := o.judge.Complete(ctx, model, summarySystemPrompt, buildSummaryPrompt(t))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)

	o.mu.Lock()
	lb.t.Summary = summary
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.UpdateSummary(ctx, t.Identity, summary); err != nil {
			return summary, fmt.Errorf("summary generated but not saved: %w", err)
		}
	}
	return summary, nil
}

func buildSummaryPrompt(t *battle.Tournament) string {
	var b strings.Builder
	b.WriteString("Summarize this battle in 4-5 engaging sentences, focusing on why certain coins won.\n\n")
	fmt.Fprintf(&b, "Selection criteria: %q\n\n", t.Prompt)

	board := battle.Score(t.Runs, t.JudgeOrder)
	b.WriteString("Top coins by score:\n")
	for _, e := range board.TopN(3) {
		fmt.Fprintf(&b, "- %s (%s): %d points\n", e.Coin.Name, e.Coin.Ticker, e.Score)
	}

	b.WriteString("\nPer-model winners:\n")
	for _, id := range t.JudgeOrder {
		run, ok := t.Runs[id]
		if !ok {
			continue
		}
		if run.Failed {
			fmt.Fprintf(&b, "- %s: no verdict (%s)\n", id, run.Err)
			continue
		}
		winner := run.Winner()
		if winner == nil {
			continue
		}
		reason := battle.ReasonFinalWinner
		// The decisive reason is the one from the last judged (non-synthesized)
		// round.
		if n := len(run.Rounds); n >= 2 {
			if pools := run.Rounds[n-2].Pools; len(pools) > 0 && len(pools[0].Winners) > 0 {
				reason = pools[0].Winners[0].Reason
			}
		}
		fmt.Fprintf(&b, "- %s picked %s (%s): %s\n", id, winner.Name, winner.Ticker, reason)
	}
	return b.String()
}

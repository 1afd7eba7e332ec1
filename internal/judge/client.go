package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
)

const (
	maxAttempts = 3

	systemPrompt = "You are an expert cryptocurrency analyst. Your task is to analyze cryptocurrencies and provide clear, concise explanations for your selections."

	loserFallbackReason = "Did not meet selection criteria"
)

var (
	// ErrOracle covers transport problems: timeouts, network errors,
	// provider-side failures.
	ErrOracle = errors.New("judge oracle unavailable")
	// ErrBadVerdict covers contract violations: missing sections, wrong
	// winner count. The oracle may answer differently next time, so these
	// are retried like transport errors.
	ErrBadVerdict = errors.New("judge verdict violates contract")
)

// Verdict is a judged pool outcome: a disjoint winners/losers partition of
// the pool's candidates, each with a reason.
type Verdict struct {
	Winners []battle.JudgedCandidate
	Losers  []battle.JudgedCandidate
}

// Client turns one pool plus a criterion into a Verdict by consulting an
// Oracle, with validation and bounded retries.
type Client struct {
	oracle Oracle
	sleep  func(time.Duration)
}

func NewClient(oracle Oracle) *Client {
	return &Client{oracle: oracle, sleep: time.Sleep}
}

// Judge decides one pool for one judge model. A pool of one is won outright
// without consulting the oracle; that base case is what guarantees a run
// terminates. Otherwise the oracle is asked for exactly
// ceil(len(pool)/2) winners and the answer is validated against the pool.
// Transient failures are retried up to maxAttempts with exponential backoff.
func (c *Client) Judge(ctx context.Context, judgeID string, pool battle.Pool, criterion string) (Verdict, error) {
	if len(pool.Candidates) == 0 {
		return Verdict{}, fmt.Errorf("%w: empty pool", ErrBadVerdict)
	}
	if len(pool.Candidates) == 1 {
		return Verdict{
			Winners: []battle.JudgedCandidate{{Coin: pool.Candidates[0], Reason: battle.ReasonLastContestant}},
		}, nil
	}

	prompt := buildPrompt(pool, criterion)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
		if err := ctx.Err(); err != nil {
			return Verdict{}, fmt.Errorf("%w: %v", ErrOracle, err)
		}

		raw, err := c.oracle.Complete(ctx, judgeID, systemPrompt, prompt)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrOracle, err)
			slog.Warn("oracle call failed", "judge", judgeID, "pool", pool.Index, "attempt", attempt+1, "error", err)
			continue
		}

		verdict, err := parseVerdict(raw, pool, judgeID)
		if err != nil {
			lastErr = err
			slog.Warn("oracle verdict rejected", "judge", judgeID, "pool", pool.Index, "attempt", attempt+1, "error", err)
			continue
		}
		return verdict, nil
	}

	return Verdict{}, fmt.Errorf("judge %s gave up on pool %d after %d attempts: %w", judgeID, pool.Index, maxAttempts, lastErr)
}

// Complete forwards a raw prompt to the oracle, bypassing verdict parsing.
// Used for auxiliary generations such as the battle summary.
func (c *Client) Complete(ctx context.Context, model, system, user string) (string, error) {
	return c.oracle.Complete(ctx, model, system, user)
}

func buildPrompt(pool battle.Pool, criterion string) string {
	required := pool.RequiredWinners()

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this pool of %d cryptocurrencies and select winners and losers according to the selection criteria.\n", len(pool.Candidates))
	fmt.Fprintf(&b, "Select exactly %d winners; the remaining %d are losers. For each coin, provide an explanation for your decision.\n\n",
		required, len(pool.Candidates)-required)
	fmt.Fprintf(&b, "Selection criteria: %s\n\n", criterion)
	b.WriteString("Respond in this exact format (no extra text), coin symbol in uppercase followed by the reason:\n")
	b.WriteString("$Winners$\n")
	b.WriteString("TICKER: reason for winning\n\n")
	b.WriteString("$Losers$\n")
	b.WriteString("TICKER: reason for losing\n\n")
	b.WriteString("Pool:\n")
	for _, c := range pool.Candidates {
		fmt.Fprintf(&b, "%s: %s\n", c.Ticker, c.Name)
	}
	return b.String()
}

// parseVerdict validates the oracle's answer against the pool. Unknown
// tickers are dropped with a warning rather than failing the call, but the
// winner count is the authority: anything other than exactly
// RequiredWinners() valid winners is a bad verdict.
func parseVerdict(raw string, pool battle.Pool, judgeID string) (Verdict, error) {
	parts := strings.SplitN(raw, "$Losers$", 2)
	if len(parts) != 2 || !strings.Contains(parts[0], "$Winners$") {
		return Verdict{}, fmt.Errorf("%w: missing $Winners$/$Losers$ sections", ErrBadVerdict)
	}

	byTicker := make(map[string]battle.Candidate, len(pool.Candidates))
	for _, c := range pool.Candidates {
		byTicker[c.Ticker] = c
	}

	winnersText := strings.Replace(parts[0], "$Winners$", "", 1)
	seen := make(map[string]bool)
	var winners []battle.JudgedCandidate
	parseLines(winnersText)(func(ticker, reason string) bool {
		coin, ok := byTicker[ticker]
		if !ok {
			slog.Warn("oracle returned unknown winner ticker", "judge", judgeID, "ticker", ticker)
			return true
		}
		if seen[ticker] {
			return true
		}
		seen[ticker] = true
		winners = append(winners, battle.JudgedCandidate{Coin: coin, Reason: reason})
		return true
	})

	if required := pool.RequiredWinners(); len(winners) != required {
		return Verdict{}, fmt.Errorf("%w: got %d winners, want %d", ErrBadVerdict, len(winners), required)
	}

	// Losers are everyone not picked as a winner, with reasons from the
	// response where the oracle gave one.
	loserReasons := make(map[string]string)
	parseLines(parts[1])(func(ticker, reason string) bool {
		loserReasons[ticker] = reason
		return true
	})
	var losers []battle.JudgedCandidate
	for _, c := range pool.Candidates {
		if seen[c.Ticker] {
			continue
		}
		reason := loserReasons[c.Ticker]
		if reason == "" {
			reason = loserFallbackReason
		}
		losers = append(losers, battle.JudgedCandidate{Coin: c, Reason: reason})
	}

	return Verdict{Winners: winners, Losers: losers}, nil
}

// parseLines walks "TICKER: reason" lines in order, yielding each pair.
func parseLines(section string) func(func(string, string) bool) {
	return func(yield func(string, string) bool) {
		for _, line := range strings.Split(section, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			ticker, reason, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			if !yield(strings.TrimSpace(ticker), strings.TrimSpace(reason)) {
				return
			}
		}
	}
}

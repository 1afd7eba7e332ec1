package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/battleofcoins/battle-of-coins/internal/judge"
	"github.com/battleofcoins/battle-of-coins/internal/store"
	"github.com/battleofcoins/battle-of-coins/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBattleNotFound = errors.New("battle not found")
	ErrBattleRunning  = errors.New("battle still in progress")
)

type Config struct {
	// PoolCapacity is the maximum pool size; zero means the default of 8.
	PoolCapacity int
	// RoundDelay throttles external call volume between rounds of one
	// judge run. Correctness does not depend on it.
	RoundDelay time.Duration
	// Retention is how long a completed, saved battle stays readable
	// through Snapshot before it is evicted from memory.
	Retention time.Duration
}

type StartParams struct {
	Candidates []battle.Candidate
	Criterion  string
	JudgeIDs   []string
	OwnerID    *uuid.UUID
	Public     bool
}

type liveBattle struct {
	t      *battle.Tournament
	owner  *uuid.UUID
	public bool
	done   chan struct{}
}

// Orchestrator owns every in-progress tournament. Each judge run is driven
// by its own goroutine; all reads of live state go through deep-copied
// snapshots under the orchestrator lock.
type Orchestrator struct {
	judge    *judge.Client
	registry *judge.Registry
	store    *store.BattleStore

	capacity   int
	roundDelay time.Duration
	retention  time.Duration

	mu      sync.RWMutex
	battles map[uuid.UUID]*liveBattle
}

// NewOrchestrator wires the engine together. battleStore may be nil, in
// which case completed battles stay in memory only.
func NewOrchestrator(judgeClient *judge.Client, registry *judge.Registry, battleStore *store.BattleStore, cfg Config) *Orchestrator {
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = battle.DefaultPoolCapacity
	}
	if cfg.RoundDelay == 0 {
		cfg.RoundDelay = time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 10 * time.Minute
	}
	return &Orchestrator{
		judge:      judgeClient,
		registry:   registry,
		store:      battleStore,
		capacity:   cfg.PoolCapacity,
		roundDelay: cfg.RoundDelay,
		retention:  cfg.Retention,
		battles:    make(map[uuid.UUID]*liveBattle),
	}
}

// Start validates the request, builds one independent judge run per selected
// model and launches the battle in the background. It returns the handle for
// polling the live state.
func (o *Orchestrator) Start(ctx context.Context, params StartParams) (uuid.UUID, error) {
	if len(params.Candidates) == 0 {
		return uuid.Nil, fmt.Errorf("battle needs at least one candidate")
	}
	if len(params.JudgeIDs) == 0 {
		return uuid.Nil, fmt.Errorf("battle needs at least one judge model")
	}
	if err := o.registry.Known(params.JudgeIDs); err != nil {
		return uuid.Nil, err
	}
	tickers := make(map[string]bool, len(params.Candidates))
	for _, c := range params.Candidates {
		if c.Ticker == "" {
			return uuid.Nil, fmt.Errorf("candidate %q has no ticker", c.Name)
		}
		if tickers[c.Ticker] {
			return uuid.Nil, fmt.Errorf("duplicate ticker %q", c.Ticker)
		}
		tickers[c.Ticker] = true
	}
	seenJudges := make(map[string]bool, len(params.JudgeIDs))
	for _, id := range params.JudgeIDs {
		if seenJudges[id] {
			return uuid.Nil, fmt.Errorf("judge model %q selected twice", id)
		}
		seenJudges[id] = true
	}

	t := &battle.Tournament{
		ID:         uuid.New(),
		Prompt:     params.Criterion,
		Candidates: append([]battle.Candidate(nil), params.Candidates...),
		JudgeOrder: append([]string(nil), params.JudgeIDs...),
		Runs:       make(map[string]*battle.JudgeRun, len(params.JudgeIDs)),
		CreatedAt:  time.Now().UTC(),
		Status:     battle.BattleRunning,
	}
	for _, id := range params.JudgeIDs {
		t.Runs[id] = battle.NewJudgeRun(id, t.Candidates, o.capacity)
	}

	lb := &liveBattle{t: t, owner: params.OwnerID, public: params.Public, done: make(chan struct{})}
	o.mu.Lock()
	o.battles[t.ID] = lb
	o.mu.Unlock()

	slog.Info("battle started", "battle", t.ID, "candidates", len(t.Candidates), "judges", len(t.JudgeOrder))

	// The battle outlives the HTTP request that started it.
	go o.run(context.Background(), lb)

	return t.ID, nil
}

func (o *Orchestrator) run(ctx context.Context, lb *liveBattle) {
	var g errgroup.Group
	for _, id := range lb.t.JudgeOrder {
		run := lb.t.Runs[id]
		g.Go(func() error {
			return o.driveRun(ctx, run, lb.t.Prompt)
		})
	}
	if err := g.Wait(); err != nil {
		// Failed runs are already recorded on their own state; siblings
		// finished regardless.
		slog.Warn("battle completed with failed judge runs", "battle", lb.t.ID, "error", err)
	}
	o.finish(ctx, lb)
}

// driveRun loops one judge run through rounds until it is terminal or fails.
// A failing run never touches its siblings.
func (o *Orchestrator) driveRun(ctx context.Context, run *battle.JudgeRun, criterion string) error {
	for {
		next, err := o.advanceRound(ctx, run, criterion)
		if err != nil {
			o.mu.Lock()
			run.Failed = true
			run.Err = err.Error()
			o.mu.Unlock()
			slog.Error("judge run failed", "judge", run.JudgeID, "error", err)
			return fmt.Errorf("judge %s: %w", run.JudgeID, err)
		}
		if next == nil {
			slog.Info("judge run terminal", "judge", run.JudgeID, "rounds", len(run.Rounds))
			return nil
		}

		select {
		case <-ctx.Done():
			o.mu.Lock()
			run.Failed = true
			run.Err = ctx.Err().Error()
			o.mu.Unlock()
			return ctx.Err()
		case <-time.After(o.roundDelay):
		}
	}
}

// finish freezes the tournament: scores, global winner, identity hash, then
// the automatic save. The done channel closes only after the save attempt,
// so a waiter that observes completion can read the record back. A failed
// save keeps the completed battle in memory so the user can retry
// explicitly; a saved one is evicted from live state after a grace period.
func (o *Orchestrator) finish(ctx context.Context, lb *liveBattle) {
	o.mu.Lock()
	t := lb.t
	board := battle.Score(t.Runs, t.JudgeOrder)
	t.Scores = board.Entries()
	t.GlobalWinner = board.GlobalWinner()
	t.Identity = battle.Identity(t.Runs, t.JudgeOrder)
	t.Status = battle.BattleCompleted
	rec := buildRecord(t, lb.owner, lb.public)
	o.mu.Unlock()
	defer close(lb.done)

	slog.Info("battle completed", "battle", t.ID, "identity", t.Identity)

	if o.store == nil {
		return
	}
	if err := o.store.Save(ctx, rec); err != nil {
		slog.Error("failed to save battle", "battle", t.ID, "identity", rec.ID, "error", err)
		return
	}
	o.evictLater(t.ID)
}

// evictLater drops a saved battle from the live map once clients have had
// time to move over to the persisted record. Without it the map grows for
// the life of the process.
func (o *Orchestrator) evictLater(id uuid.UUID) {
	time.AfterFunc(o.retention, func() {
		o.mu.Lock()
		delete(o.battles, id)
		o.mu.Unlock()
		slog.Info("battle evicted from live state", "battle", id)
	})
}

func buildRecord(t *battle.Tournament, owner *uuid.UUID, public bool) *store.BattleRecord {
	return &store.BattleRecord{
		ID:      t.Identity,
		OwnerID: owner,
		Date:    t.CreatedAt,
		Prompt:  t.Prompt,
		Public:  public,
		Results: battle.NewResults(t),
	}
}

// Snapshot returns a deep copy of a live battle for rendering.
func (o *Orchestrator) Snapshot(id uuid.UUID) (*battle.Tournament, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	lb, ok := o.battles[id]
	if !ok {
		return nil, ErrBattleNotFound
	}
	return lb.t.Clone(), nil
}

// Terminal reports whether one judge's run has reached its end state.
func (o *Orchestrator) Terminal(id uuid.UUID, judgeID string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	lb, ok := o.battles[id]
	if !ok {
		return false, ErrBattleNotFound
	}
	run, ok := lb.t.Runs[judgeID]
	if !ok {
		return false, fmt.Errorf("no run for judge %q", judgeID)
	}
	return run.Terminal() || run.Failed, nil
}

// Wait blocks until the battle completes or the context expires.
func (o *Orchestrator) Wait(ctx context.Context, id uuid.UUID) error {
	o.mu.RLock()
	lb, ok := o.battles[id]
	o.mu.RUnlock()
	if !ok {
		return ErrBattleNotFound
	}
	select {
	case <-lb.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Save persists a completed battle, overriding the visibility chosen at
// start. It is the explicit retry path when the automatic save failed.
func (o *Orchestrator) Save(ctx context.Context, id uuid.UUID, public bool) error {
	if o.store == nil {
		return fmt.Errorf("no battle store configured")
	}

	o.mu.Lock()
	lb, ok := o.battles[id]
	if !ok {
		o.mu.Unlock()
		return ErrBattleNotFound
	}
	if lb.t.Status != battle.BattleCompleted {
		o.mu.Unlock()
		return ErrBattleRunning
	}
	lb.public = public
	rec := buildRecord(lb.t, lb.owner, public)
	if lb.t.Summary != "" {
		// Copy, so the record never aliases live state.
		rec.Summary = utils.Ptr(lb.t.Summary)
	}
	o.mu.Unlock()

	if err := o.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save battle: %w", err)
	}
	return nil
}

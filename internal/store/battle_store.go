package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BattleRecord is a completed battle as persisted: keyed by the identity
// hash, so saving the same outcome twice upserts instead of duplicating.
type BattleRecord struct {
	ID      string          `db:"id"`
	OwnerID *uuid.UUID      `db:"owner_id"`
	Date    time.Time       `db:"date"`
	Prompt  string          `db:"prompt"`
	Summary *string         `db:"summary"`
	Public  bool            `db:"public"`
	Results *battle.Results `db:"-"`
}

type battleRow struct {
	ID      string     `db:"id"`
	OwnerID *uuid.UUID `db:"owner_id"`
	Date    time.Time  `db:"date"`
	Prompt  string     `db:"prompt"`
	Summary *string    `db:"summary"`
	Public  bool       `db:"public"`
	Results string     `db:"results"`
}

type BattleStore struct {
	db *sqlx.DB
}

func NewBattleStore(db *sqlx.DB) *BattleStore {
	return &BattleStore{db: db}
}

// Save upserts the record on its identity hash. Saving an outcome that
// already exists overwrites it in place; there is never a duplicate row.
func (s *BattleStore) Save(ctx context.Context, rec *BattleRecord) error {
	raw, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("failed to encode battle results: %w", err)
	}
	row := battleRow{
		ID:      rec.ID,
		OwnerID: rec.OwnerID,
		Date:    rec.Date,
		Prompt:  rec.Prompt,
		Summary: rec.Summary,
		Public:  rec.Public,
		Results: string(raw),
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO battle_histories (id, owner_id, date, prompt, summary, public, results)
		VALUES (:id, :owner_id, :date, :prompt, :summary, :public, :results)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			prompt = excluded.prompt,
			summary = COALESCE(excluded.summary, battle_histories.summary),
			public = excluded.public,
			results = excluded.results`, row)
	return err
}

func (s *BattleStore) GetByID(ctx context.Context, id string) (*BattleRecord, error) {
	var row battleRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM battle_histories WHERE id = ?", id); err != nil {
		return nil, err
	}
	return rowToRecord(&row)
}

// List returns public battles, newest first, plus the total count for
// paging. Pages are 1-based.
func (s *BattleStore) List(ctx context.Context, page, perPage int) ([]BattleRecord, int, error) {
	return s.list(ctx, page, perPage, "public = 1", nil)
}

// ListByOwner returns one user's battles regardless of visibility.
func (s *BattleStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]BattleRecord, int, error) {
	return s.list(ctx, page, perPage, "owner_id = ?", []any{ownerID})
}

func (s *BattleStore) list(ctx context.Context, page, perPage int, where string, args []any) ([]BattleRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM battle_histories WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count battles: %w", err)
	}

	var rows []battleRow
	query := "SELECT * FROM battle_histories WHERE " + where + " ORDER BY date DESC LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &rows, query, append(append([]any{}, args...), perPage, (page-1)*perPage)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list battles: %w", err)
	}

	records := make([]BattleRecord, 0, len(rows))
	for i := range rows {
		rec, err := rowToRecord(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	return records, total, nil
}

func (s *BattleStore) UpdateSummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE battle_histories SET summary = ? WHERE id = ?", summary, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a battle, but only for its owner.
func (s *BattleStore) Delete(ctx context.Context, id string, ownerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM battle_histories WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func rowToRecord(row *battleRow) (*BattleRecord, error) {
	var results battle.Results
	if err := json.Unmarshal([]byte(row.Results), &results); err != nil {
		return nil, fmt.Errorf("failed to decode battle %s results: %w", row.ID, err)
	}
	return &BattleRecord{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		Date:    row.Date,
		Prompt:  row.Prompt,
		Summary: row.Summary,
		Public:  row.Public,
		Results: &results,
	}, nil
}

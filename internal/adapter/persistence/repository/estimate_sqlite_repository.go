package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/usecase/interfaces"

	"github.com/google/uuid"
)

// EstimateSQLiteRepository persists estimate snapshots in SQLite.
//
// Tables:
//   - estimates: aggregate fields, assumptions/questions as JSON
//   - estimate_items: PK (estimate_id, ordinal), cascade on estimate delete
//   - estimate_changes: append-only revision log
//
// Every write runs in one transaction whose first statement is a write, so the
// database lock is taken up front instead of upgraded mid-transaction.

type EstimateSQLiteRepository struct {
	db    *sql.DB
	locks *keyedLocker
}

var _ interfaces.IEstimateRepository = (*EstimateSQLiteRepository)(nil)

func NewEstimateSQLiteRepository(db *sql.DB) *EstimateSQLiteRepository {
	return &EstimateSQLiteRepository{db: db, locks: newKeyedLocker()}
}

func (r *EstimateSQLiteRepository) Create(ctx context.Context, e entities.Estimate) (out entities.Estimate, err error) {
	e = withCollections(e)
	assumptions, questions, err := encodeLists(e)
	if err != nil {
		return entities.Estimate{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.Estimate{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO estimates (project_name, source, status, subtotal, currency, assumptions, questions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProjectName, string(e.Source), string(e.Status), e.Subtotal, e.Currency, assumptions, questions,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return entities.Estimate{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return entities.Estimate{}, err
	}
	if err = insertItems(ctx, tx, id, e.Items); err != nil {
		return entities.Estimate{}, err
	}
	if err = tx.Commit(); err != nil {
		return entities.Estimate{}, err
	}

	e.ID = id
	return e, nil
}

func (r *EstimateSQLiteRepository) Replace(ctx context.Context, id int64, e entities.Estimate, input string) (out entities.Estimate, err error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	e = withCollections(e)
	e.ID = id
	assumptions, questions, err := encodeLists(e)
	if err != nil {
		return entities.Estimate{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.Estimate{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE estimates SET project_name = ?, source = ?, status = ?, subtotal = ?, currency = ?,
		        assumptions = ?, questions = ?, updated_at = ?
		 WHERE id = ?`,
		e.ProjectName, string(e.Source), string(e.Status), e.Subtotal, e.Currency, assumptions, questions,
		formatTime(e.UpdatedAt), id,
	)
	if err != nil {
		return entities.Estimate{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entities.Estimate{}, err
	}
	if n == 0 {
		_ = tx.Rollback()
		return entities.Estimate{}, nil
	}

	var createdAt string
	if err = tx.QueryRowContext(ctx, `SELECT created_at FROM estimates WHERE id = ?`, id).Scan(&createdAt); err != nil {
		return entities.Estimate{}, err
	}
	e.CreatedAt = parseTime(createdAt)

	if _, err = tx.ExecContext(ctx, `DELETE FROM estimate_items WHERE estimate_id = ?`, id); err != nil {
		return entities.Estimate{}, err
	}
	if err = insertItems(ctx, tx, id, e.Items); err != nil {
		return entities.Estimate{}, err
	}

	snapshot, err := encodeJSON(e)
	if err != nil {
		return entities.Estimate{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO estimate_changes (id, estimate_id, change_text, snapshot, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), id, input, snapshot, formatTime(e.UpdatedAt),
	); err != nil {
		return entities.Estimate{}, err
	}
	if err = tx.Commit(); err != nil {
		return entities.Estimate{}, err
	}
	return e, nil
}

func (r *EstimateSQLiteRepository) GetByID(ctx context.Context, id int64) (entities.Estimate, error) {
	unlock := r.locks.RLock(id)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.Estimate{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, project_name, source, status, subtotal, currency, assumptions, questions, created_at, updated_at
		 FROM estimates WHERE id = ?`, id)
	e, err := scanEstimate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Estimate{}, nil
	}
	if err != nil {
		return entities.Estimate{}, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT name, scope, qty, unit, finish, unit_cost, total_cost, notes
		 FROM estimate_items WHERE estimate_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return entities.Estimate{}, err
	}
	defer rows.Close()

	e.Items = []entities.Item{}
	for rows.Next() {
		var it entities.Item
		if err := rows.Scan(&it.Name, &it.Scope, &it.Quantity, &it.Unit, &it.Finish, &it.UnitCost, &it.TotalCost, &it.Notes); err != nil {
			return entities.Estimate{}, err
		}
		e.Items = append(e.Items, it)
	}
	if err := rows.Err(); err != nil {
		return entities.Estimate{}, err
	}
	return e, nil
}

// ListRecent returns estimate summaries (no items), newest first.
func (r *EstimateSQLiteRepository) ListRecent(ctx context.Context, limit int) ([]entities.Estimate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_name, source, status, subtotal, currency, assumptions, questions, created_at, updated_at
		 FROM estimates ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entities.Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EstimateSQLiteRepository) ListChanges(ctx context.Context, estimateID int64) ([]entities.EstimateChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, estimate_id, change_text, snapshot, created_at
		 FROM estimate_changes WHERE estimate_id = ? ORDER BY created_at, rowid`, estimateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entities.EstimateChange{}
	for rows.Next() {
		var (
			c                   entities.EstimateChange
			snapshot, createdAt string
		)
		if err := rows.Scan(&c.ID, &c.EstimateID, &c.Input, &snapshot, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(snapshot), &c.Snapshot); err != nil {
			return nil, fmt.Errorf("decode change %s snapshot: %w", c.ID, err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(row rowScanner) (entities.Estimate, error) {
	var (
		e                      entities.Estimate
		source, status         string
		assumptions, questions string
		createdAt, updatedAt   string
	)
	if err := row.Scan(&e.ID, &e.ProjectName, &source, &status, &e.Subtotal, &e.Currency,
		&assumptions, &questions, &createdAt, &updatedAt); err != nil {
		return entities.Estimate{}, err
	}
	e.Source = entities.EstimateSource(source)
	e.Status = entities.EstimateStatus(status)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(assumptions), &e.Assumptions); err != nil {
		return entities.Estimate{}, fmt.Errorf("decode assumptions of estimate %d: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return entities.Estimate{}, fmt.Errorf("decode questions of estimate %d: %w", e.ID, err)
	}
	return e, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, estimateID int64, items []entities.Item) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO estimate_items (estimate_id, ordinal, name, scope, qty, unit, finish, unit_cost, total_cost, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, estimateID, i, it.Name, it.Scope, it.Quantity, it.Unit, it.Finish, it.UnitCost, it.TotalCost, it.Notes); err != nil {
			return err
		}
	}
	return nil
}

func encodeLists(e entities.Estimate) (string, string, error) {
	assumptions, err := encodeJSON(e.Assumptions)
	if err != nil {
		return "", "", err
	}
	questions, err := encodeJSON(e.Questions)
	if err != nil {
		return "", "", err
	}
	return assumptions, questions, nil
}

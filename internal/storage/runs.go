package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/service"
)

const labelSeparator = "|"

// SaveRun stores a run, replacing any previous run with the same request ID.
func (s *SQLiteStorage) SaveRun(ctx context.Context, result *model.Result) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	createdAt := result.StartedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, college, description, status, provider, model, duration_ms, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			college = excluded.college,
			description = excluded.description,
			status = excluded.status,
			provider = excluded.provider,
			model = excluded.model,
			duration_ms = excluded.duration_ms,
			result_json = excluded.result_json
	`,
		result.Request.ID,
		createdAt.UTC(),
		result.Request.College,
		result.Request.Description,
		string(result.Status),
		result.Provider,
		result.Model,
		result.Duration.Milliseconds(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_labels WHERE run_id = ?`, result.Request.ID); err != nil {
		return fmt.Errorf("failed to clear run labels: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_labels (run_id, position, field, subfield) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, label := range result.Labels() {
		if _, err := stmt.ExecContext(ctx, result.Request.ID, i, label.Field, label.Subfield); err != nil {
			return fmt.Errorf("failed to save run label %s: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun loads the full result of a stored run.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Result, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var result model.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &result, nil
}

// ListRuns returns run summaries, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter service.RunFilter) ([]model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
	}

	query := `
		SELECT r.id, r.created_at, r.college, r.description, r.status, r.duration_ms,
			COALESCE((
				SELECT GROUP_CONCAT(l.field || '::' || l.subfield, '` + labelSeparator + `')
				FROM (SELECT field, subfield FROM run_labels WHERE run_id = r.id ORDER BY position) l
			), '')
		FROM runs r
	`

	var (
		where []string
		args  []any
	)
	if filter.Since != nil {
		where = append(where, "r.created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.College != "" {
		where = append(where, "r.college = ?")
		args = append(args, filter.College)
	}
	if filter.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Field != "" {
		where = append(where, "EXISTS (SELECT 1 FROM run_labels WHERE run_id = r.id AND field = ?)")
		args = append(args, filter.Field)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id"

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := -1
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		query += " LIMIT ?"
		args = append(args, limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.RunSummary
	for rows.Next() {
		var (
			summary    model.RunSummary
			status     string
			durationMS int64
			labels     string
		)
		if err := rows.Scan(&summary.ID, &summary.CreatedAt, &summary.College, &summary.Description,
			&status, &durationMS, &labels); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summary.Status = model.RunStatus(status)
		summary.Duration = time.Duration(durationMS) * time.Millisecond
		if labels != "" {
			summary.Labels = strings.Split(labels, labelSeparator)
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// DeleteRun removes a stored run and its labels.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_labels WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run labels: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}

	return tx.Commit()
}

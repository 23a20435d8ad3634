package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Simplici0/rab/internal/estimate"
)

// EstimateSummary is a list row of a stored estimate.
type EstimateSummary struct {
	ID          string  `json:"id"`
	ProjectName string  `json:"projectName"`
	Owner       string  `json:"owner"`
	GrandTotal  float64 `json:"grandTotal"`
	UpdatedAt   string  `json:"updatedAt"`
}

// SaveEstimate writes the estimate's payload document. The last save wins.
func (s *Store) SaveEstimate(ctx context.Context, e *estimate.Estimate) (err error) {
	defer func() { s.metrics.ObserveSave(err) }()

	payload := e.Payload()
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("save estimate %s: %w", e.ID, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode estimate %s: %w", e.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO estimates (id, project_name, owner, grand_total, payload_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			project_name = excluded.project_name,
			owner = excluded.owner,
			grand_total = excluded.grand_total,
			payload_json = excluded.payload_json,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, e.ID, payload.ProjectName, payload.Owner, e.GrandTotal(), string(raw))
	if err != nil {
		return fmt.Errorf("save estimate %s: %w", e.ID, err)
	}
	return nil
}

// LoadEstimate rebuilds a stored estimate.
func (s *Store) LoadEstimate(ctx context.Context, id string) (*estimate.Estimate, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT payload_json FROM estimates WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("estimate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load estimate %s: %w", id, err)
	}

	var payload estimate.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode estimate %s: %w", id, err)
	}
	e, err := estimate.FromPayload(id, payload)
	if err != nil {
		return nil, fmt.Errorf("rebuild estimate %s: %w", id, err)
	}
	return e, nil
}

// ListEstimates returns stored estimates, most recently saved first.
func (s *Store) ListEstimates(ctx context.Context) ([]EstimateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, owner, grand_total, updated_at
		FROM estimates
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}
	defer rows.Close()

	var out []EstimateSummary
	for rows.Next() {
		var es EstimateSummary
		if err := rows.Scan(&es.ID, &es.ProjectName, &es.Owner, &es.GrandTotal, &es.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		out = append(out, es)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return out, nil
}

// DeleteEstimate removes a stored estimate.
func (s *Store) DeleteEstimate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete estimate %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete estimate %s: %w", id, ErrNotFound)
	}
	return nil
}

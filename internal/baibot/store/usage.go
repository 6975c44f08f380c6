package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UsageEntry is one recorded provider call.
type UsageEntry struct {
	RoomID  string
	Sender  string
	Purpose string
	AgentID string
	ModelID string
}

// UsageSummary aggregates the usage of one purpose in one room.
type UsageSummary struct {
	Purpose string
	AgentID string
	Count   int
}

// RecordUsage appends a usage row. Failures are the caller's to log; usage
// accounting must never fail the main pipeline.
func (s *Store) RecordUsage(ctx context.Context, entry UsageEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage (id, room_id, sender, purpose, agent_id, model_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), entry.RoomID, entry.Sender, entry.Purpose, entry.AgentID, entry.ModelID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// RoomUsage returns per-purpose call counts for a room since the given
// time, most used first.
func (s *Store) RoomUsage(ctx context.Context, roomID string, since time.Time) ([]UsageSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT purpose, agent_id, COUNT(*) AS calls
		FROM usage
		WHERE room_id = ? AND created_at >= ?
		GROUP BY purpose, agent_id
		ORDER BY calls DESC
	`, roomID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	var out []UsageSummary
	for rows.Next() {
		var s UsageSummary
		if err := rows.Scan(&s.Purpose, &s.AgentID, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

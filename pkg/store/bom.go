package store

import (
	"context"
	"fmt"
	"time"
)

// BOMLine is one bill-of-materials row linking a project to an inventory
// item. Lines are plain rows, not relationship links: a project can consume
// the same inventory item on several lines with different quantities.
type BOMLine struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	InventoryID int64     `json:"inventory_id"`
	Quantity    int64     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// BOMStore persists bill-of-materials lines.
type BOMStore struct {
	backend *Backend
}

// AddLine inserts a line for the project referencing the inventory item.
func (s *BOMStore) AddLine(ctx context.Context, projectID, inventoryID int64) (int64, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	res, err := s.backend.db.ExecContext(ctx,
		`INSERT INTO bom_lines (project_id, inventory_id, quantity, created_at) VALUES (?, ?, 1, ?)`,
		projectID, inventoryID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("adding BOM line project=%d inventory=%d: %w", projectID, inventoryID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading BOM line id: %w", err)
	}
	return id, nil
}

// Lines returns the lines for one project ordered by id.
func (s *BOMStore) Lines(ctx context.Context, projectID int64) ([]BOMLine, error) {
	rows, err := s.backend.db.QueryContext(ctx,
		"SELECT id, project_id, inventory_id, quantity, created_at FROM bom_lines WHERE project_id = ? ORDER BY id",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing BOM lines for project %d: %w", projectID, err)
	}
	defer rows.Close()

	lines := []BOMLine{}
	for rows.Next() {
		var (
			l         BOMLine
			createdAt string
		)
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.InventoryID, &l.Quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("hydrating BOM line: %w", err)
		}
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		l.CreatedAt = ts
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating BOM lines: %w", err)
	}
	return lines, nil
}

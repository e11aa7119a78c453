package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/observability"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

var _ rel.Store = (*LinkStore)(nil)

// LinkStore persists directed typed relationships in the links table.
//
// Referential integrity is deliberately not checked: a link may outlive
// either endpoint. Dangling links never produce a rendered edge and are
// otherwise harmless.
type LinkStore struct {
	backend *Backend
}

const linkColumns = "id, source_type, source_id, target_type, target_id, relationship, created_at"

// Link inserts the relationship unless the identical 5-tuple already exists,
// in which case the stored link's id is returned unchanged. The UNIQUE
// constraint on the tuple makes the check-then-insert atomic.
func (s *LinkStore) Link(ctx context.Context, source, target entity.Ref, kind rel.Kind) (int64, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	res, err := s.backend.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO links (source_type, source_id, target_type, target_id, relationship, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(source.Type), source.ID, string(target.Type), target.ID, string(kind),
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting link %s -> %s (%s): %w", source, target, kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading insert result: %w", err)
	}

	if affected == 0 {
		// Tuple already stored; return its id.
		var id int64
		err := s.backend.db.QueryRowContext(ctx,
			`SELECT id FROM links
			 WHERE source_type = ? AND source_id = ? AND target_type = ? AND target_id = ? AND relationship = ?`,
			string(source.Type), source.ID, string(target.Type), target.ID, string(kind),
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("looking up existing link: %w", err)
		}
		return id, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading link id: %w", err)
	}

	observability.Store().OnLinkWrite(ctx, string(kind))
	s.backend.publish(bus.TopicLinks, bus.OpCreate, id)
	return id, nil
}

// Unlink deletes links between the pair; a nil kind deletes every
// relationship between them. Returns the number of deleted rows.
func (s *LinkStore) Unlink(ctx context.Context, source, target entity.Ref, kind *rel.Kind) (int64, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	query := `DELETE FROM links
	          WHERE source_type = ? AND source_id = ? AND target_type = ? AND target_id = ?`
	args := []any{string(source.Type), source.ID, string(target.Type), target.ID}
	if kind != nil {
		query += " AND relationship = ?"
		args = append(args, string(*kind))
	}

	res, err := s.backend.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("unlinking %s -> %s: %w", source, target, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading delete result: %w", err)
	}
	if count > 0 {
		s.backend.publish(bus.TopicLinks, bus.OpDelete, 0)
	}
	return count, nil
}

// Incoming returns links whose target is ref, newest first.
func (s *LinkStore) Incoming(ctx context.Context, ref entity.Ref) ([]rel.Link, error) {
	return s.query(ctx,
		"SELECT "+linkColumns+" FROM links WHERE target_type = ? AND target_id = ? ORDER BY created_at DESC, id DESC",
		string(ref.Type), ref.ID)
}

// Outgoing returns links whose source is ref, newest first.
func (s *LinkStore) Outgoing(ctx context.Context, ref entity.Ref) ([]rel.Link, error) {
	return s.query(ctx,
		"SELECT "+linkColumns+" FROM links WHERE source_type = ? AND source_id = ? ORDER BY created_at DESC, id DESC",
		string(ref.Type), ref.ID)
}

// Connections returns all links touching ref in either direction.
func (s *LinkStore) Connections(ctx context.Context, ref entity.Ref) ([]rel.Link, error) {
	return s.query(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE (source_type = ? AND source_id = ?) OR (target_type = ? AND target_id = ?)
		 ORDER BY created_at DESC, id DESC`,
		string(ref.Type), ref.ID, string(ref.Type), ref.ID)
}

// All returns every stored link ordered by id for deterministic rebuilds.
func (s *LinkStore) All(ctx context.Context) ([]rel.Link, error) {
	return s.query(ctx, "SELECT "+linkColumns+" FROM links ORDER BY id")
}

func (s *LinkStore) query(ctx context.Context, query string, args ...any) ([]rel.Link, error) {
	rows, err := s.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	links := []rel.Link{}
	for rows.Next() {
		l, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

func hydrateLink(rows *sql.Rows) (rel.Link, error) {
	var (
		l          rel.Link
		sourceType string
		targetType string
		kind       string
		createdAt  string
	)
	if err := rows.Scan(&l.ID, &sourceType, &l.Source.ID, &targetType, &l.Target.ID, &kind, &createdAt); err != nil {
		return rel.Link{}, err
	}
	l.Source.Type = entity.Type(sourceType)
	l.Target.Type = entity.Type(targetType)
	l.Kind = rel.Kind(kind)

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return rel.Link{}, fmt.Errorf("parsing created_at: %w", err)
	}
	l.CreatedAt = ts
	return l, nil
}

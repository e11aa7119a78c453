package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
)

var _ entity.Repository = (*entityRepo)(nil)

// entityRepo exposes one entity type's slice of the entities table as an
// entity.Repository. All repositories share the backing table; the type
// column keeps their id spaces from colliding in queries even though ids
// are globally unique.
type entityRepo struct {
	backend *Backend
	typ     entity.Type
}

const entityColumns = "id, type, title, flow_x, flow_y, scheduled_date, scheduled_time, project_ids, created_at"

// Get returns the record or entity.ErrNotFound.
func (r *entityRepo) Get(ctx context.Context, id int64) (*entity.Record, error) {
	rows, err := r.backend.db.QueryContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE id = ? AND type = ?",
		id, string(r.typ))
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", r.typ, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting %s %d: %w", r.typ, id, err)
		}
		return nil, fmt.Errorf("%s %d: %w", r.typ, id, entity.ErrNotFound)
	}
	return hydrateEntity(rows)
}

// List returns all records of this type ordered by id.
func (r *entityRepo) List(ctx context.Context) ([]*entity.Record, error) {
	rows, err := r.backend.db.QueryContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE type = ? ORDER BY id",
		string(r.typ))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.typ, err)
	}
	defer rows.Close()

	out := []*entity.Record{}
	for rows.Next() {
		rec, err := hydrateEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating %s: %w", r.typ, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", r.typ, err)
	}
	return out, nil
}

// Create inserts the record and returns its assigned id.
func (r *entityRepo) Create(ctx context.Context, rec *entity.Record) (int64, error) {
	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	projectIDs, err := json.Marshal(rec.ProjectIDs)
	if err != nil {
		return 0, fmt.Errorf("encoding project_ids: %w", err)
	}
	if rec.ProjectIDs == nil {
		projectIDs = []byte("[]")
	}

	var scheduledDate any
	if rec.ScheduledDate != nil {
		scheduledDate = rec.ScheduledDate.Format(dateLayout)
	}

	res, err := r.backend.db.ExecContext(ctx,
		`INSERT INTO entities (type, title, flow_x, flow_y, scheduled_date, scheduled_time, project_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.typ), rec.Title, rec.FlowX, rec.FlowY, scheduledDate,
		nullIfEmpty(rec.ScheduledTime), string(projectIDs), rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", r.typ, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading entity id: %w", err)
	}
	rec.ID = id
	rec.Type = r.typ

	r.backend.publish(bus.TopicFor(r.typ), bus.OpCreate, id)
	return id, nil
}

// Update applies a partial field change and returns the affected row count.
// Unknown field keys fail with entity.ErrUnknownField before any write.
func (r *entityRepo) Update(ctx context.Context, id int64, fields entity.Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for key, value := range fields {
		v, err := encodeField(key, value)
		if err != nil {
			return 0, err
		}
		setClauses = append(setClauses, key+" = ?")
		args = append(args, v)
	}
	args = append(args, id, string(r.typ))

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	res, err := r.backend.db.ExecContext(ctx,
		"UPDATE entities SET "+strings.Join(setClauses, ", ")+" WHERE id = ? AND type = ?",
		args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s %d: %w", r.typ, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading update result: %w", err)
	}
	if affected > 0 {
		r.backend.publish(bus.TopicFor(r.typ), bus.OpUpdate, id)
	}
	return affected, nil
}

// Delete removes the record. Links referencing it are left in place; they
// stop producing edges but remain queryable.
func (r *entityRepo) Delete(ctx context.Context, id int64) error {
	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	res, err := r.backend.db.ExecContext(ctx,
		"DELETE FROM entities WHERE id = ? AND type = ?", id, string(r.typ))
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", r.typ, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", r.typ, id, entity.ErrNotFound)
	}
	r.backend.publish(bus.TopicFor(r.typ), bus.OpDelete, id)
	return nil
}

// encodeField converts a Fields value into its column representation.
func encodeField(key string, value any) (any, error) {
	switch key {
	case entity.FieldTitle:
		return value, nil
	case entity.FieldFlowX, entity.FieldFlowY:
		switch v := value.(type) {
		case nil:
			return nil, nil
		case float64:
			return v, nil
		case *float64:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("%s: unsupported value %T: %w", key, value, entity.ErrUnknownField)
		}
	case entity.FieldScheduledDate:
		switch v := value.(type) {
		case nil:
			return nil, nil
		case time.Time:
			return v.Format(dateLayout), nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return v.Format(dateLayout), nil
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("%s: unsupported value %T: %w", key, value, entity.ErrUnknownField)
		}
	case entity.FieldScheduledTime:
		return value, nil
	case entity.FieldProjectIDs:
		ids, ok := value.([]int64)
		if !ok {
			return nil, fmt.Errorf("%s: unsupported value %T: %w", key, value, entity.ErrUnknownField)
		}
		encoded, err := json.Marshal(ids)
		if err != nil {
			return nil, fmt.Errorf("encoding project_ids: %w", err)
		}
		return string(encoded), nil
	default:
		return nil, fmt.Errorf("%s: %w", key, entity.ErrUnknownField)
	}
}

func hydrateEntity(rows *sql.Rows) (*entity.Record, error) {
	var (
		rec           entity.Record
		typ           string
		flowX, flowY  sql.NullFloat64
		scheduledDate sql.NullString
		scheduledTime sql.NullString
		projectIDs    string
		createdAt     string
	)
	if err := rows.Scan(&rec.ID, &typ, &rec.Title, &flowX, &flowY,
		&scheduledDate, &scheduledTime, &projectIDs, &createdAt); err != nil {
		return nil, err
	}

	rec.Type = entity.Type(typ)
	if flowX.Valid {
		x := flowX.Float64
		rec.FlowX = &x
	}
	if flowY.Valid {
		y := flowY.Float64
		rec.FlowY = &y
	}
	if scheduledDate.Valid && scheduledDate.String != "" {
		d, err := time.Parse(dateLayout, scheduledDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing scheduled_date: %w", err)
		}
		rec.ScheduledDate = &d
	}
	if scheduledTime.Valid {
		rec.ScheduledTime = scheduledTime.String
	}
	if err := json.Unmarshal([]byte(projectIDs), &rec.ProjectIDs); err != nil {
		return nil, fmt.Errorf("decoding project_ids: %w", err)
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.CreatedAt = ts
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

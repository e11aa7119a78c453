package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
)

func TestEntityRepo_CreateGetList(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeProject)
	ctx := context.Background()

	id, err := repo.Create(ctx, &entity.Record{Title: "workshop rebuild"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Title != "workshop rebuild" || rec.Type != entity.TypeProject {
		t.Errorf("Get returned %+v", rec)
	}
	if rec.Placed() {
		t.Error("fresh record reports a placement")
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List returned %d records, want 1", len(all))
	}
}

func TestEntityRepo_GetMissing(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeGoal)

	_, err := repo.Get(context.Background(), 42)
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("Get(42) error = %v, want ErrNotFound", err)
	}
}

func TestEntityRepo_TypesAreIsolated(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	projects := backend.Repository(entity.TypeProject)
	goals := backend.Repository(entity.TypeGoal)

	id, _ := projects.Create(ctx, &entity.Record{Title: "p"})

	if _, err := goals.Get(ctx, id); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("goal repo resolved a project id: %v", err)
	}
}

func TestEntityRepo_UpdatePlacement(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeTask)
	ctx := context.Background()

	id, _ := repo.Create(ctx, &entity.Record{Title: "sand the door"})

	affected, err := repo.Update(ctx, id, entity.Fields{
		entity.FieldFlowX: 240.0,
		entity.FieldFlowY: 80.0,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if affected != 1 {
		t.Errorf("Update affected %d rows, want 1", affected)
	}

	rec, _ := repo.Get(ctx, id)
	if !rec.Placed() || *rec.FlowX != 240.0 || *rec.FlowY != 80.0 {
		t.Errorf("placement not stored: %+v", rec)
	}

	// Clearing the placement sets both columns NULL.
	if _, err := repo.Update(ctx, id, entity.Fields{
		entity.FieldFlowX: nil,
		entity.FieldFlowY: nil,
	}); err != nil {
		t.Fatalf("clear placement: %v", err)
	}
	rec, _ = repo.Get(ctx, id)
	if rec.Placed() {
		t.Error("placement survived a clear")
	}
}

func TestEntityRepo_UpdateSchedule(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeTask)
	ctx := context.Background()

	id, _ := repo.Create(ctx, &entity.Record{Title: "file taxes"})

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if _, err := repo.Update(ctx, id, entity.Fields{
		entity.FieldScheduledDate: date,
		entity.FieldScheduledTime: "09:30",
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec, _ := repo.Get(ctx, id)
	if rec.ScheduledDate == nil || !rec.ScheduledDate.Equal(date) {
		t.Errorf("scheduled_date = %v, want %v", rec.ScheduledDate, date)
	}
	if rec.ScheduledTime != "09:30" {
		t.Errorf("scheduled_time = %q, want 09:30", rec.ScheduledTime)
	}
}

func TestEntityRepo_UpdateProjectIDs(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeAsset)
	ctx := context.Background()

	id, _ := repo.Create(ctx, &entity.Record{Title: "table saw"})

	if _, err := repo.Update(ctx, id, entity.Fields{
		entity.FieldProjectIDs: []int64{3, 7},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec, _ := repo.Get(ctx, id)
	if len(rec.ProjectIDs) != 2 || rec.ProjectIDs[0] != 3 || rec.ProjectIDs[1] != 7 {
		t.Errorf("project_ids = %v, want [3 7]", rec.ProjectIDs)
	}
}

func TestEntityRepo_UpdateUnknownField(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeProject)
	ctx := context.Background()

	id, _ := repo.Create(ctx, &entity.Record{Title: "p"})

	_, err := repo.Update(ctx, id, entity.Fields{"status": "done"})
	if !errors.Is(err, entity.ErrUnknownField) {
		t.Errorf("Update(status) error = %v, want ErrUnknownField", err)
	}
}

func TestEntityRepo_UpdateMissingRowAffectsZero(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := backend.Repository(entity.TypeProject)

	affected, err := repo.Update(context.Background(), 404, entity.Fields{entity.FieldTitle: "x"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if affected != 0 {
		t.Errorf("Update of missing row affected %d", affected)
	}
}

func TestEntityRepo_PublishesChangeEvents(t *testing.T) {
	backend, b := newTestBackend(t)
	repo := backend.Repository(entity.TypeProject)
	ctx := context.Background()

	ch, cancel := b.Subscribe(bus.TopicFor(entity.TypeProject))
	defer cancel()

	id, _ := repo.Create(ctx, &entity.Record{Title: "p"})
	repo.Update(ctx, id, entity.Fields{entity.FieldTitle: "p2"})
	repo.Delete(ctx, id)

	want := []bus.Op{bus.OpCreate, bus.OpUpdate, bus.OpDelete}
	for _, op := range want {
		ev := <-ch
		if ev.Op != op || ev.ID != id {
			t.Errorf("event %+v, want op=%s id=%d", ev, op, id)
		}
	}
}

func TestBOMStore_AddAndList(t *testing.T) {
	backend, _ := newTestBackend(t)
	bom := backend.BOM()
	ctx := context.Background()

	if _, err := bom.AddLine(ctx, 42, 7); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	lines, err := bom.Lines(ctx, 42)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Lines returned %d, want 1", len(lines))
	}
	l := lines[0]
	if l.ProjectID != 42 || l.InventoryID != 7 || l.Quantity != 1 {
		t.Errorf("line = %+v", l)
	}
}

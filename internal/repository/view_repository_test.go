package repository

import (
	"context"
	"reflect"
	"testing"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

func TestViewRepository_CreateGet(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewViewRepository(db)
	ctx := context.Background()

	view := domain.NewVideoView(640, 480, 120)
	view.FirstFrameIndex = 1
	if err := repo.Create(ctx, view); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("retrieves existing view", func(t *testing.T) {
		got, err := repo.Get(ctx, view.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil {
			t.Fatal("Expected view, got nil")
		}
		if got.Width != 640 || got.Height != 480 {
			t.Errorf("Size = %dx%d, want 640x480", got.Width, got.Height)
		}
		if got.TotalFrames != 120 || got.FirstFrameIndex != 1 {
			t.Errorf("Frames = %d from %d, want 120 from 1", got.TotalFrames, got.FirstFrameIndex)
		}
		if got.CreatedAt.IsZero() {
			t.Error("CreatedAt should not be zero")
		}
	})

	t.Run("returns nil for missing view", func(t *testing.T) {
		got, err := repo.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != nil {
			t.Error("Expected nil for missing view")
		}
	})

	t.Run("fails on duplicate id", func(t *testing.T) {
		if err := repo.Create(ctx, view); err == nil {
			t.Error("Expected error for duplicate id")
		}
	})

	t.Run("lists", func(t *testing.T) {
		if err := repo.Create(ctx, domain.NewView(1, 1)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		views, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(views) != 2 {
			t.Errorf("List() returned %d views, want 2", len(views))
		}
	})
}

func TestViewRepository_Raster(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewViewRepository(db)
	ctx := context.Background()

	view := domain.NewView(4, 3)
	if err := repo.Create(ctx, view); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.LoadRaster(ctx, view.ID)
	if err != nil || got != nil {
		t.Fatalf("LoadRaster() = %v, %v, want nil, nil", got, err)
	}

	r := view.Raster()
	r.AssignLabel(1, "a")
	r.AssignLabel(300, "b")
	r.Buffer[0] = 1
	r.Buffer[11] = 300
	if err := repo.SaveRaster(ctx, view.ID, r); err != nil {
		t.Fatalf("SaveRaster() error = %v", err)
	}

	got, err = repo.LoadRaster(ctx, view.ID)
	if err != nil {
		t.Fatalf("LoadRaster() error = %v", err)
	}
	if got.ID != r.ID || !reflect.DeepEqual(got.Buffer, r.Buffer) {
		t.Errorf("LoadRaster() buffer = %v, want %v", got.Buffer, r.Buffer)
	}
	if !reflect.DeepEqual(got.Labels(), r.Labels()) {
		t.Errorf("LoadRaster() labels = %v, want %v", got.Labels(), r.Labels())
	}
	if l, _ := got.GetLabelIndexForAnnotationID("b"); l != 300 {
		t.Errorf("Label of b = %d, want 300", l)
	}

	r.Buffer[0] = 0
	if err := repo.SaveRaster(ctx, view.ID, r); err != nil {
		t.Fatalf("SaveRaster() overwrite error = %v", err)
	}
	got, _ = repo.LoadRaster(ctx, view.ID)
	if got.Buffer[0] != 0 {
		t.Errorf("Got %d, want overwritten pixel 0", got.Buffer[0])
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}
	version, dirty, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("SchemaVersion() = %d dirty=%v, want 2 clean", version, dirty)
	}
}

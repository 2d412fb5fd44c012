package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/algorisys-oss/python-opencv-katas/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{
		ID:         "abc12345-0000-0000-0000-000000000000",
		Mode:       storage.ModeSandboxed,
		Status:     storage.StatusOK,
		KataSlug:   "grayscale",
		Code:       "import cv2",
		Logs:       "loaded",
		HasImage:   true,
		DurationMs: 120,
	}

	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	if got.Mode != storage.ModeSandboxed {
		t.Errorf("mode = %q, want %q", got.Mode, storage.ModeSandboxed)
	}
	if got.Status != storage.StatusOK {
		t.Errorf("status = %q, want %q", got.Status, storage.StatusOK)
	}
	if got.KataSlug != "grayscale" {
		t.Errorf("kata_slug = %q, want %q", got.KataSlug, "grayscale")
	}
	if !got.HasImage {
		t.Error("has_image should round-trip")
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should not be zero")
	}
}

func TestGetRunByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{
		ID:     "abc12345-0000-0000-0000-000000000000",
		Mode:   storage.ModeSandboxed,
		Status: storage.StatusOK,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("got ID %q, want %q", got.ID, run.ID)
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{
		"abc00000-0000-0000-0000-000000000000",
		"abc11111-0000-0000-0000-000000000000",
	} {
		run := &storage.Run{ID: id, Mode: storage.ModeSandboxed, Status: storage.StatusOK}
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	_, err := s.GetRun(ctx, "abc")
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := &storage.Run{
			ID:     fmt.Sprintf("run-%d", i),
			Mode:   storage.ModeSandboxed,
			Status: storage.StatusOK,
		}
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, storage.RunListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
}

func TestListRunsFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.CreateRun(ctx, &storage.Run{ID: "a1", Mode: storage.ModeSandboxed, Status: storage.StatusOK})
	s.CreateRun(ctx, &storage.Run{ID: "a2", Mode: storage.ModeSandboxed, Status: storage.StatusTimeout})
	s.CreateRun(ctx, &storage.Run{ID: "a3", Mode: storage.ModeDesktop, Status: storage.StatusDesktop})

	runs, err := s.ListRuns(ctx, storage.RunListOptions{Status: storage.StatusTimeout})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "a2" {
		t.Errorf("status filter returned %v", runs)
	}

	runs, err = s.ListRuns(ctx, storage.RunListOptions{Mode: storage.ModeDesktop})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "a3" {
		t.Errorf("mode filter returned %v", runs)
	}
}

func TestListRunsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.CreateRun(ctx, &storage.Run{
			ID:     fmt.Sprintf("run-%d", i),
			Mode:   storage.ModeSandboxed,
			Status: storage.StatusOK,
		})
	}

	runs, err := s.ListRuns(ctx, storage.RunListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestSaveHint(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{ID: "hint1", Mode: storage.ModeSandboxed, Status: storage.StatusError, Error: "boom"}
	s.CreateRun(ctx, run)

	if err := s.SaveHint(ctx, "hint1", "use cv2.imread first"); err != nil {
		t.Fatalf("SaveHint: %v", err)
	}

	got, err := s.GetRun(ctx, "hint1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Hint != "use cv2.imread first" {
		t.Errorf("hint = %q", got.Hint)
	}
}

func TestDeleteRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{ID: "del1", Mode: storage.ModeSandboxed, Status: storage.StatusOK}
	s.CreateRun(ctx, run)

	if err := s.DeleteRun(ctx, "del1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	_, err := s.GetRun(ctx, "del1")
	if err == nil {
		t.Fatal("expected error after delete")
	}
}

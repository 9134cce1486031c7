package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "novels-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := InitDuckDB(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to init DB: %v", err)
	}

	repo := NewRepository(db)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func TestSaveAndGetRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run := &RunRecord{
		Title:      "Test Novel",
		Mode:       PerVolume,
		Formats:    []Format{FormatPDF, FormatText},
		OutputDir:  "/tmp/out",
		Selected:   3,
		Fetched:    2,
		Skipped:    1,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Artifacts: []ArtifactRecord{
			{Path: "/tmp/out/V1/V1.pdf", Format: FormatPDF},
			{Path: "/tmp/out/V1/V1.txt", Format: FormatText},
		},
		Skips: []SkipEntry{{Target: "https://example.com/c3", Reason: "navigation failed"}},
	}

	if err := repo.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Expected run ID to be assigned")
	}

	retrieved, err := repo.GetRun(run.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected run to be found")
	}

	if retrieved.Title != run.Title {
		t.Errorf("Expected Title %s, got %s", run.Title, retrieved.Title)
	}
	if retrieved.Mode != PerVolume {
		t.Errorf("Expected Mode %s, got %s", PerVolume, retrieved.Mode)
	}
	if len(retrieved.Formats) != 2 || retrieved.Formats[1] != FormatText {
		t.Errorf("Expected formats [pdf text], got %v", retrieved.Formats)
	}
	if len(retrieved.Artifacts) != 2 {
		t.Errorf("Expected 2 artifacts, got %d", len(retrieved.Artifacts))
	}
	if len(retrieved.Skips) != 1 || retrieved.Skips[0].Reason != "navigation failed" {
		t.Errorf("Unexpected skips: %+v", retrieved.Skips)
	}
}

func TestListRuns(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	runs, err := repo.ListRuns(10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &RunRecord{
			Title:      string(rune('A' + i)),
			Mode:       PerChapter,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.SaveRun(run); err != nil {
			t.Fatalf("Failed to save run %d: %v", i, err)
		}
	}

	runs, err = repo.ListRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Title != "C" {
		t.Errorf("Expected newest run first, got %s", runs[0].Title)
	}
}

func TestRunSkipsOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &RunRecord{
		Title: "Ordered",
		Skips: []SkipEntry{
			{Target: "c2", Reason: "b"},
			{Target: "c1", Reason: "a"},
			{Target: "c3"},
		},
	}
	if err := repo.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	skips, err := repo.RunSkips(run.ID)
	if err != nil {
		t.Fatalf("Failed to load skips: %v", err)
	}
	if len(skips) != 3 {
		t.Fatalf("Expected 3 skips, got %d", len(skips))
	}
	if skips[0].Target != "c2" || skips[1].Target != "c1" || skips[2].Target != "c3" {
		t.Errorf("Expected skips in logged order, got %+v", skips)
	}
}

func TestGetNonExistentRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run, err := repo.GetRun("non-existent")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if run != nil {
		t.Error("Expected run to be nil for non-existent ID")
	}
}

func TestGetRunByShortID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &RunRecord{
		Title:     "Short",
		Mode:      PerChapter,
		Formats:   []Format{FormatText},
		StartedAt: time.Now(),
		Artifacts: []ArtifactRecord{{Path: "/tmp/out/c1.txt", Format: FormatText}},
	}
	if err := repo.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	shown := ShortID(run.ID)
	if len(shown) != ShortIDLength {
		t.Fatalf("Expected %d characters, got %q", ShortIDLength, shown)
	}

	retrieved, err := repo.GetRun(shown)
	if err != nil {
		t.Fatalf("Failed to get run by short id: %v", err)
	}
	if retrieved == nil || retrieved.ID != run.ID {
		t.Fatalf("Expected run %s, got %+v", run.ID, retrieved)
	}
	if len(retrieved.Artifacts) != 1 {
		t.Errorf("Expected 1 artifact, got %d", len(retrieved.Artifacts))
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	for _, id := range []string{"abc12345-0000", "abc12345-1111"} {
		if err := repo.SaveRun(&RunRecord{ID: id, Title: id, StartedAt: time.Now()}); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
	}

	if _, err := repo.GetRun("abc12345"); !errors.Is(err, ErrAmbiguousRunID) {
		t.Fatalf("Expected ErrAmbiguousRunID, got %v", err)
	}

	run, err := repo.GetRun("abc12345-1111")
	if err != nil || run == nil || run.Title != "abc12345-1111" {
		t.Fatalf("Expected exact id to resolve, got %+v, %v", run, err)
	}
}

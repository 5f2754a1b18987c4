package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"screenmatch/internal/errors"
	"screenmatch/internal/types"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "job_descriptions.json")
	fs, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStoreSaveAssignsSequentialIDs(t *testing.T) {
	fs := newTestStore(t)

	first, err := fs.Save(types.JobDescription{Title: "Backend Engineer", Description: "Go services"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := fs.Save(types.JobDescription{Title: "Data Engineer", Description: "Pipelines"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.UsageCount != 1 {
		t.Errorf("new record usage count = %d, want 1", first.UsageCount)
	}
	if first.CreatedDate.IsZero() || first.LastUpdated.IsZero() {
		t.Error("timestamps not set on save")
	}
	if first.Category != types.CategoryCustom {
		t.Errorf("default category = %q, want %q", first.Category, types.CategoryCustom)
	}
}

func TestFileStoreSaveDeduplicatesByTitle(t *testing.T) {
	fs := newTestStore(t)

	first, err := fs.Save(types.JobDescription{Title: "Backend Engineer", Description: "v1"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := fs.Save(types.JobDescription{
		Title:        "Backend Engineer",
		Description:  "v2",
		Requirements: "Go, PostgreSQL",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("merged save changed id: %d -> %d", first.ID, second.ID)
	}
	if second.UsageCount != 2 {
		t.Errorf("usage count after merge = %d, want 2", second.UsageCount)
	}
	if second.Description != "v2" {
		t.Errorf("description not overwritten, got %q", second.Description)
	}
	if !second.CreatedDate.Equal(first.CreatedDate) {
		t.Error("merge must preserve creation date")
	}
	if second.LastUpdated.Before(first.LastUpdated) {
		t.Error("merge must advance last_updated")
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record after duplicate save, got %d", len(all))
	}
}

func TestFileStoreDeleteKeepsIDsStable(t *testing.T) {
	fs := newTestStore(t)

	for _, title := range []string{"A", "B", "C"} {
		if _, err := fs.Save(types.JobDescription{Title: title}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if err := fs.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ID != 1 || all[1].ID != 3 {
		t.Errorf("ids renumbered after delete: %d, %d", all[0].ID, all[1].ID)
	}

	// The freed highest slot stays freed; a new save continues from max+1.
	fresh, err := fs.Save(types.JobDescription{Title: "D"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fresh.ID != 4 {
		t.Errorf("new id after delete = %d, want 4", fresh.ID)
	}
}

func TestFileStoreIDReuseAfterTailDelete(t *testing.T) {
	fs := newTestStore(t)

	if _, err := fs.Save(types.JobDescription{Title: "A"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := fs.Save(types.JobDescription{Title: "B"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := fs.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fresh, err := fs.Save(types.JobDescription{Title: "C"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fresh.ID != 2 {
		t.Errorf("expected freed tail id 2 to be reused, got %d", fresh.ID)
	}
}

func TestFileStoreUse(t *testing.T) {
	fs := newTestStore(t)

	saved, err := fs.Save(types.JobDescription{Title: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	used, err := fs.Use(saved.ID)
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	if used.UsageCount != 2 {
		t.Errorf("usage count after Use = %d, want 2", used.UsageCount)
	}

	if _, err := fs.Use(999); err == nil {
		t.Fatal("Use of missing id should fail")
	} else if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.ErrCodeJobNotFound {
		t.Errorf("expected %s, got %v", errors.ErrCodeJobNotFound, err)
	}
}

func TestFileStoreUpdate(t *testing.T) {
	fs := newTestStore(t)

	saved, err := fs.Save(types.JobDescription{
		Title:        "Backend Engineer",
		Description:  "v1",
		Requirements: "Go",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updated, err := fs.Update(saved.ID, types.JobDescription{
		Description:  "v2",
		Requirements: "Go, PostgreSQL",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != "Backend Engineer" {
		t.Errorf("empty title must not overwrite, got %q", updated.Title)
	}
	if updated.Description != "v2" {
		t.Errorf("description not updated, got %q", updated.Description)
	}
	if updated.Requirements != "Go, PostgreSQL" {
		t.Errorf("requirements not updated, got %q", updated.Requirements)
	}
	if updated.UsageCount != saved.UsageCount {
		t.Errorf("update must preserve usage count, got %d", updated.UsageCount)
	}
	if !updated.CreatedDate.Equal(saved.CreatedDate) {
		t.Error("update must preserve creation date")
	}

	if _, err := fs.Update(99, types.JobDescription{Title: "X"}); err == nil {
		t.Error("expected error updating missing record")
	}
}

func TestFileStoreGetAndDeleteMissing(t *testing.T) {
	fs := newTestStore(t)

	if _, err := fs.Get(42); err == nil {
		t.Error("Get of missing id should fail")
	}
	if err := fs.Delete(42); err == nil {
		t.Error("Delete of missing id should fail")
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_descriptions.json")

	fs, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := fs.Save(types.JobDescription{Title: "Backend Engineer", Requirements: "Go"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore reopen: %v", err)
	}
	all, err := reopened.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Title != "Backend Engineer" {
		t.Errorf("collection did not survive reopen: %+v", all)
	}
}

func TestFileStoreFileIsAlwaysValidJSON(t *testing.T) {
	fs := newTestStore(t)

	if _, err := fs.Save(types.JobDescription{Title: "A"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var jds []types.JobDescription
	if err := json.Unmarshal(data, &jds); err != nil {
		t.Fatalf("store file is not a valid JSON array: %v", err)
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_descriptions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore on corrupt file: %v", err)
	}
	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("corrupt store should start empty, got %d records", len(all))
	}

	// The store stays usable after recovery.
	if _, err := fs.Save(types.JobDescription{Title: "A"}); err != nil {
		t.Fatalf("Save after recovery: %v", err)
	}
}

func TestFileStoreLoadsBothRequirementsSchemas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_descriptions.json")
	raw := `[
	  {"id": 1, "title": "Backend Engineer", "description": "Go services",
	   "requirements": "Python, AWS, Docker", "category": "Custom",
	   "created_date": "2025-03-10T00:00:00Z", "last_updated": "2025-03-10T00:00:00Z",
	   "usage_count": 3},
	  {"id": 2, "title": "Data Engineer", "description": "Pipelines",
	   "requirements": ["Python", "Spark"], "category": "Template",
	   "created_date": "2025-03-11T00:00:00Z", "last_updated": "2025-03-11T00:00:00Z",
	   "usage_count": 1}
	]`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	fs, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	first, err := fs.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if first.Requirements != "Python, AWS, Docker" {
		t.Errorf("string requirements = %q, want %q", first.Requirements, "Python, AWS, Docker")
	}
	if first.UsageCount != 3 {
		t.Errorf("usage count = %d, want 3", first.UsageCount)
	}

	second, err := fs.Get(2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if second.Requirements != "Python\nSpark" {
		t.Errorf("array requirements = %q, want joined lines", second.Requirements)
	}
}

func TestFileStoreFailedPersistLeavesMemoryUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_descriptions.json")
	fs, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := fs.Save(types.JobDescription{Title: "Backend Engineer"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Make the next rename fail by putting a directory where the store file
	// lives. os.Rename refuses to replace a directory with a file.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := fs.Save(types.JobDescription{Title: "Data Engineer"}); err == nil {
		t.Fatal("expected Save to fail when the file cannot be replaced")
	} else if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.ErrCodePersistenceFailed {
		t.Errorf("expected %s, got %v", errors.ErrCodePersistenceFailed, err)
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Title != "Backend Engineer" {
		t.Errorf("failed save mutated the in-memory view: %+v", all)
	}

	if err := fs.Delete(1); err == nil {
		t.Fatal("expected Delete to fail when the file cannot be replaced")
	}
	if _, err := fs.Get(1); err != nil {
		t.Errorf("record lost after failed delete: %v", err)
	}
}

func TestFileStoreImportMerges(t *testing.T) {
	fs := newTestStore(t)

	existing, err := fs.Save(types.JobDescription{Title: "Backend Engineer", Description: "old"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	added, merged, err := fs.Import([]types.JobDescription{
		{Title: "Backend Engineer", Description: "imported", UsageCount: 99},
		{Title: "Data Engineer", Description: "new"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if added != 1 || merged != 1 {
		t.Errorf("added=%d merged=%d, want 1 and 1", added, merged)
	}

	got, err := fs.Get(existing.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "imported" {
		t.Errorf("merged description = %q, want %q", got.Description, "imported")
	}
	// Imported usage counts are ignored: the local count just increments.
	if got.UsageCount != 2 {
		t.Errorf("merged usage count = %d, want 2", got.UsageCount)
	}
}

func TestFileStoreListOrderedByID(t *testing.T) {
	fs := newTestStore(t)

	for _, title := range []string{"C", "A", "B"} {
		if _, err := fs.Save(types.JobDescription{Title: title}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("list not ordered by ascending id: %v", all)
		}
	}
}

func TestMemoryStoreMirrorsFileStoreSemantics(t *testing.T) {
	ms := NewMemoryStore()

	first, err := ms.Save(types.JobDescription{Title: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := ms.Save(types.JobDescription{Title: "Backend Engineer", Description: "v2"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second.ID != first.ID || second.UsageCount != 2 {
		t.Errorf("memory store dedup broken: %+v", second)
	}

	if err := ms.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(first.ID); err == nil {
		t.Error("Get after Delete should fail")
	}
}

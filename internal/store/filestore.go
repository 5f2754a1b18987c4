package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"screenmatch/internal/errors"
	"screenmatch/internal/types"
)

// FileStore keeps the whole collection as a JSON array in a single file.
// Every mutation rewrites the file via a temp file and rename, so the file on
// disk is always a complete, valid collection.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	jds    []types.JobDescription
	logger *errors.Logger
}

// NewFileStore opens (or initializes) the collection at path. A missing file
// means an empty collection. A corrupt file also means an empty collection:
// the store logs a warning and carries on rather than refusing to start; the
// corrupt content is only overwritten on the first successful mutation.
func NewFileStore(path string, logger *errors.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.NewConfigError(
			errors.ErrCodeInvalidConfig,
			"store file path must not be empty",
			nil,
		)
	}

	fs := &FileStore{path: path, logger: logger}
	fs.jds = fs.load()
	return fs, nil
}

func (fs *FileStore) load() []types.JobDescription {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) && fs.logger != nil {
			fs.logger.Warn("Failed to read job description store, starting empty",
				"path", fs.path, "error", err)
		}
		return []types.JobDescription{}
	}

	var jds []types.JobDescription
	if err := json.Unmarshal(data, &jds); err != nil {
		if fs.logger != nil {
			fs.logger.Warn("Job description store is corrupt, starting empty",
				"path", fs.path, "error", err)
		}
		return []types.JobDescription{}
	}
	return jds
}

// persist writes the full collection to a temp file in the store's directory
// and renames it over the real file. Called with fs.mu held.
func (fs *FileStore) persist(jds []types.JobDescription) error {
	data, err := json.MarshalIndent(jds, "", "  ")
	if err != nil {
		return errors.NewStoreError(
			errors.ErrCodePersistenceFailed,
			"failed to encode job description collection",
			err,
		)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return errors.NewStoreError(
			errors.ErrCodePersistenceFailed,
			"failed to create temporary store file",
			err,
		).WithContext("path", fs.path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewStoreError(
			errors.ErrCodePersistenceFailed,
			"failed to write temporary store file",
			err,
		).WithContext("path", fs.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewStoreError(
			errors.ErrCodePersistenceFailed,
			"failed to close temporary store file",
			err,
		).WithContext("path", fs.path)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return errors.NewStoreError(
			errors.ErrCodePersistenceFailed,
			"failed to replace store file",
			err,
		).WithContext("path", fs.path)
	}
	return nil
}

func (fs *FileStore) List() ([]types.JobDescription, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]types.JobDescription, len(fs.jds))
	copy(out, fs.jds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (fs *FileStore) Get(id int) (types.JobDescription, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if i := findByID(fs.jds, id); i >= 0 {
		return fs.jds[i], nil
	}
	return types.JobDescription{}, notFound(id)
}

func (fs *FileStore) Save(jd types.JobDescription) (types.JobDescription, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	next := make([]types.JobDescription, len(fs.jds))
	copy(next, fs.jds)

	saved := mergeOrAppend(&next, jd, time.Now().UTC())

	if err := fs.persist(next); err != nil {
		return types.JobDescription{}, err
	}
	fs.jds = next
	return saved, nil
}

func (fs *FileStore) Update(id int, jd types.JobDescription) (types.JobDescription, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	i := findByID(fs.jds, id)
	if i < 0 {
		return types.JobDescription{}, notFound(id)
	}

	next := make([]types.JobDescription, len(fs.jds))
	copy(next, fs.jds)
	applyUpdate(&next[i], jd, time.Now().UTC())

	if err := fs.persist(next); err != nil {
		return types.JobDescription{}, err
	}
	fs.jds = next
	return next[i], nil
}

func (fs *FileStore) Use(id int) (types.JobDescription, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	i := findByID(fs.jds, id)
	if i < 0 {
		return types.JobDescription{}, notFound(id)
	}

	next := make([]types.JobDescription, len(fs.jds))
	copy(next, fs.jds)
	next[i].UsageCount++
	next[i].LastUpdated = time.Now().UTC()

	if err := fs.persist(next); err != nil {
		return types.JobDescription{}, err
	}
	fs.jds = next
	return next[i], nil
}

func (fs *FileStore) Delete(id int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	i := findByID(fs.jds, id)
	if i < 0 {
		return notFound(id)
	}

	next := make([]types.JobDescription, 0, len(fs.jds)-1)
	next = append(next, fs.jds[:i]...)
	next = append(next, fs.jds[i+1:]...)

	if err := fs.persist(next); err != nil {
		return err
	}
	fs.jds = next
	return nil
}

func (fs *FileStore) Export() ([]types.JobDescription, error) {
	return fs.List()
}

func (fs *FileStore) Import(jds []types.JobDescription) (added, merged int, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	next := make([]types.JobDescription, len(fs.jds))
	copy(next, fs.jds)

	now := time.Now().UTC()
	for _, jd := range jds {
		if findByTitle(next, jd.Title) >= 0 {
			merged++
		} else {
			added++
		}
		mergeOrAppend(&next, jd, now)
	}

	if err := fs.persist(next); err != nil {
		return 0, 0, err
	}
	fs.jds = next
	return added, merged, nil
}

// Reload replaces the in-memory view with the file's current content. Used by
// the file watcher when an external tool rewrites the collection.
func (fs *FileStore) Reload() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.jds = fs.load()
}

// Path returns the backing file path.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Close() error {
	return nil
}

// mergeOrAppend applies the title-deduplication rule to the collection in
// place: an existing title is overwritten (id and creation date preserved,
// usage count incremented), a new title gets a fresh record with usage
// count 1.
func mergeOrAppend(jds *[]types.JobDescription, jd types.JobDescription, now time.Time) types.JobDescription {
	if i := findByTitle(*jds, jd.Title); i >= 0 {
		existing := &(*jds)[i]
		existing.Description = jd.Description
		existing.Requirements = jd.Requirements
		if jd.Category != "" {
			existing.Category = jd.Category
		}
		existing.UsageCount++
		existing.LastUpdated = now
		return *existing
	}

	jd.ID = nextID(*jds)
	jd.CreatedDate = now
	jd.LastUpdated = now
	jd.UsageCount = 1
	if jd.Category == "" {
		jd.Category = types.CategoryCustom
	}
	*jds = append(*jds, jd)
	return jd
}

// applyUpdate overwrites an existing record's content fields in place. Empty
// incoming fields keep their current values.
func applyUpdate(existing *types.JobDescription, jd types.JobDescription, now time.Time) {
	if jd.Title != "" {
		existing.Title = jd.Title
	}
	if jd.Description != "" {
		existing.Description = jd.Description
	}
	if jd.Requirements != "" {
		existing.Requirements = jd.Requirements
	}
	if jd.Category != "" {
		existing.Category = jd.Category
	}
	existing.LastUpdated = now
}

func notFound(id int) *errors.AppError {
	return errors.NewStoreError(
		errors.ErrCodeJobNotFound,
		fmt.Sprintf("job description %d not found", id),
		nil,
	).WithContext("id", id)
}

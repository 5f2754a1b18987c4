package store

import (
	"sort"
	"sync"
	"time"

	"screenmatch/internal/types"
)

// MemoryStore is an in-memory Store with the same semantics as FileStore.
// Nothing survives Close; it exists for tests and throwaway evaluations.
type MemoryStore struct {
	mu  sync.RWMutex
	jds []types.JobDescription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jds: []types.JobDescription{}}
}

func (ms *MemoryStore) List() ([]types.JobDescription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]types.JobDescription, len(ms.jds))
	copy(out, ms.jds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ms *MemoryStore) Get(id int) (types.JobDescription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if i := findByID(ms.jds, id); i >= 0 {
		return ms.jds[i], nil
	}
	return types.JobDescription{}, notFound(id)
}

func (ms *MemoryStore) Save(jd types.JobDescription) (types.JobDescription, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return mergeOrAppend(&ms.jds, jd, time.Now().UTC()), nil
}

func (ms *MemoryStore) Update(id int, jd types.JobDescription) (types.JobDescription, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := findByID(ms.jds, id)
	if i < 0 {
		return types.JobDescription{}, notFound(id)
	}
	applyUpdate(&ms.jds[i], jd, time.Now().UTC())
	return ms.jds[i], nil
}

func (ms *MemoryStore) Use(id int) (types.JobDescription, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := findByID(ms.jds, id)
	if i < 0 {
		return types.JobDescription{}, notFound(id)
	}
	ms.jds[i].UsageCount++
	ms.jds[i].LastUpdated = time.Now().UTC()
	return ms.jds[i], nil
}

func (ms *MemoryStore) Delete(id int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := findByID(ms.jds, id)
	if i < 0 {
		return notFound(id)
	}
	ms.jds = append(ms.jds[:i], ms.jds[i+1:]...)
	return nil
}

func (ms *MemoryStore) Export() ([]types.JobDescription, error) {
	return ms.List()
}

func (ms *MemoryStore) Import(jds []types.JobDescription) (added, merged int, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now().UTC()
	for _, jd := range jds {
		if findByTitle(ms.jds, jd.Title) >= 0 {
			merged++
		} else {
			added++
		}
		mergeOrAppend(&ms.jds, jd, now)
	}
	return added, merged, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}

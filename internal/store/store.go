package store

import (
	"screenmatch/internal/types"
)

// Store is the persistence port for job descriptions. Implementations must
// keep ids stable across deletes and deduplicate saves by exact title.
type Store interface {
	// List returns all job descriptions ordered by ascending id.
	List() ([]types.JobDescription, error)

	// Get returns the job description with the given id.
	Get(id int) (types.JobDescription, error)

	// Save persists a job description. If a record with the same title
	// already exists, its fields are overwritten, its usage count is
	// incremented, and its id and creation date are preserved. Otherwise a
	// new record is created with usage count 1.
	Save(jd types.JobDescription) (types.JobDescription, error)

	// Update overwrites the fields of an existing record identified by id.
	// The id, creation date, and usage count are preserved.
	Update(id int, jd types.JobDescription) (types.JobDescription, error)

	// Use records a usage of the job description and returns the updated
	// record.
	Use(id int) (types.JobDescription, error)

	// Delete removes the job description. Remaining ids are never renumbered.
	Delete(id int) error

	// Export returns a snapshot of the full collection.
	Export() ([]types.JobDescription, error)

	// Import merges records into the collection using the same
	// title-deduplication rule as Save. It reports how many records were
	// added and how many merged into existing ones.
	Import(jds []types.JobDescription) (added, merged int, err error)

	Close() error
}

// nextID allocates the next id as max(existing)+1, starting at 1. Ids freed
// by deletes may be reused once no higher id remains.
func nextID(jds []types.JobDescription) int {
	maxID := 0
	for _, jd := range jds {
		if jd.ID > maxID {
			maxID = jd.ID
		}
	}
	return maxID + 1
}

// findByTitle returns the index of the record with an exactly matching title,
// or -1.
func findByTitle(jds []types.JobDescription, title string) int {
	for i, jd := range jds {
		if jd.Title == title {
			return i
		}
	}
	return -1
}

// findByID returns the index of the record with the given id, or -1.
func findByID(jds []types.JobDescription, id int) int {
	for i, jd := range jds {
		if jd.ID == id {
			return i
		}
	}
	return -1
}

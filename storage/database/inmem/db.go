package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/placement/core/enrollment"
)

// DB is a process-local store. Sections and students share one lock so that rosters,
// which are derived from students, are always read consistently with their section.
type DB struct {
	mu       sync.RWMutex
	sections map[uuid.UUID]*enrollment.Section
	students map[uuid.UUID]*enrollment.StudentRecord
}

func Open() *DB {
	return &DB{
		sections: make(map[uuid.UUID]*enrollment.Section),
		students: make(map[uuid.UUID]*enrollment.StudentRecord),
	}
}

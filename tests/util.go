package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

func CreateSection(
	t *testing.T,
	repo enrollment.Repository,
	name, grade string,
	unit enrollment.Unit,
	seats int,
	createdAt ...time.Time,
) enrollment.Section {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sec, err := repo.CreateSection(ctx(), enrollment.Section{
		ID:        uuid.New(),
		Name:      name,
		Grade:     grade,
		Unit:      unit,
		Capacity:  map[enrollment.Unit]int{unit: seats},
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return sec
}

// CreateStudent creates a staged record, or one already in sectionID when given.
func CreateStudent(
	t *testing.T,
	repo enrollment.Repository,
	name, originGrade, originSuffix string,
	unit enrollment.Unit,
	sectionID ...uuid.UUID,
) enrollment.StudentRecord {
	now := time.Now().UTC()
	rec := enrollment.StudentRecord{
		ID:           uuid.New(),
		Name:         name,
		SectionID:    enrollment.Unassigned,
		OriginGrade:  originGrade,
		OriginSuffix: originSuffix,
		Unit:         unit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if len(sectionID) > 0 {
		rec.SectionID = sectionID[0]
	}
	created, err := repo.CreateStudents(ctx(), rec)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return created[0]
}

// FillSection adds n students to sec.
func FillSection(t *testing.T, repo enrollment.Repository, sec enrollment.Section, n int) []enrollment.StudentRecord {
	records := make([]enrollment.StudentRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, CreateStudent(t, repo, fmt.Sprintf("Filler %02d", i), sec.Grade, "", sec.Unit, sec.ID))
	}
	return records
}

func GetSection(t *testing.T, repo enrollment.Repository, id uuid.UUID) enrollment.Section {
	sec, err := repo.GetSection(ctx(), id)
	if err != nil {
		t.Fatalf("GetSection() failed: %v", err)
	}
	return sec
}

func GetStudent(t *testing.T, repo enrollment.Repository, id uuid.UUID) enrollment.StudentRecord {
	records, err := repo.QueryStudents(ctx(), enrollment.StudentFilter{IDs: []uuid.UUID{id}})
	if err != nil || len(records) != 1 {
		t.Fatalf("GetStudent() failed: %v (%d records)", err, len(records))
	}
	return records[0]
}

func ctx() context.Context { return context.Background() }

func NewValidator() *validator.Validate {
	validate, _ := NewTranslatedValidator()
	return validate
}

// NewTranslatedValidator also returns the translator the validation texts were registered on.
func NewTranslatedValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	return validate, translator
}

func NewConfig() *core.Config {
	return &core.Config{
		AppName:  "Placement",
		Env:      "TEST",
		Debug:    true,
		TestMode: true,
		Selection: core.SelectionConfig{
			TTL: time.Minute,
		},
	}
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

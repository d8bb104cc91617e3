package enrollment

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/placement/core"
)

// Unassigned is the destination (and StudentRecord.SectionID) of students that sit in staging.
var Unassigned = uuid.Nil

type Section struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Grade     string       `json:"grade"`
	Unit      Unit         `json:"unit"`
	Period    string       `json:"period"`
	Room      string       `json:"room"`
	Capacity  map[Unit]int `json:"capacity"`
	Roster    []uuid.UUID  `json:"roster"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Seats is the capacity of the section in its own unit.
func (s Section) Seats() int {
	return s.Capacity[s.Unit]
}

func (s Section) FreeSeats() int {
	if free := s.Seats() - len(s.Roster); free > 0 {
		return free
	}
	return 0
}

type StudentRecord struct {
	ID           uuid.UUID
	Name         string
	SectionID    uuid.UUID // Unassigned when staged
	SectionName  string
	OriginGrade  string // raw grade or full class name, verbatim from the source
	OriginSuffix string // raw section suffix, verbatim from the source
	Unit         Unit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r StudentRecord) IsStaged() bool {
	return r.SectionID == Unassigned
}

// OriginLabel is the human readable "grade suffix" the record was imported with.
func (r StudentRecord) OriginLabel() string {
	return originLabel(r.OriginGrade, r.OriginSuffix)
}

type studentRecordJSON struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ClassID     *uuid.UUID `json:"class_id"`
	ClassName   string     `json:"class_name"`
	OriginClass string     `json:"origin_class_name"`
	OriginTurma string     `json:"origin_class_turma"`
	Unit        Unit       `json:"unit"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MarshalJSON renders staged records with a null class_id and an empty class_name.
func (r StudentRecord) MarshalJSON() ([]byte, error) {
	out := studentRecordJSON{
		ID:          r.ID,
		Name:        r.Name,
		OriginClass: r.OriginGrade,
		OriginTurma: r.OriginSuffix,
		Unit:        r.Unit,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if !r.IsStaged() {
		sid := r.SectionID
		out.ClassID = &sid
		out.ClassName = r.SectionName
	}
	return json.Marshal(out)
}

// ExternalRosterRow is a row handed over by the spreadsheet/legacy-export parser.
// Fields are best-effort strings.
type ExternalRosterRow struct {
	Name   string `json:"name"`
	Grade  string `json:"grade"`
	Suffix string `json:"suffix"`
	Unit   string `json:"unit"`
}

// ResolutionResult is either Resolved(Section) or Unresolved(OriginalLabel).
type ResolutionResult struct {
	Resolved      bool    `json:"resolved"`
	Section       Section `json:"-"`
	OriginalLabel string  `json:"original_label,omitempty"`
	Strategy      string  `json:"strategy,omitempty"` // name of the matching strategy
}

func resolvedTo(sec Section, strategy string) ResolutionResult {
	return ResolutionResult{Resolved: true, Section: sec, Strategy: strategy}
}

func unresolved(label string) ResolutionResult {
	return ResolutionResult{OriginalLabel: label}
}

// NewSection contains information needed to create a new Section.
type NewSection struct {
	Name     string       `json:"name" validate:"required,notblank"`
	Grade    string       `json:"grade" validate:"required,notblank"`
	Unit     Unit         `json:"unit" validate:"required,unit"`
	Period   string       `json:"period"`
	Room     string       `json:"room"`
	Capacity map[Unit]int `json:"capacity" validate:"required,dive,keys,unit,endkeys,min=0"`
}

func (ns *NewSection) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Unit = Unit(core.CleanString(string(ns.Unit), true /* lower */))
	ns.Period = core.CleanString(ns.Period)
	ns.Room = core.CleanString(ns.Room)
	return validate.Struct(ns)
}

// UpdateSection defines what information may be provided to modify an existing Section.
// Blank fields keep their current value. Rosters cannot be changed here.
type UpdateSection struct {
	Name     string       `json:"name" validate:"required"`
	Grade    string       `json:"grade" validate:"required"`
	Unit     Unit         `json:"unit" validate:"required,unit"`
	Period   string       `json:"period"`
	Room     string       `json:"room"`
	Capacity map[Unit]int `json:"capacity" validate:"required,dive,keys,unit,endkeys,min=0"`
}

func (us *UpdateSection) Validate(orig Section, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	if grade := core.CleanString(us.Grade); grade != "" {
		us.Grade = grade
	} else {
		us.Grade = orig.Grade
	}

	if unit := core.CleanString(string(us.Unit), true /* lower */); unit != "" {
		us.Unit = Unit(unit)
	} else {
		us.Unit = orig.Unit
	}

	if period := core.CleanString(us.Period); period != "" {
		us.Period = period
	} else {
		us.Period = orig.Period
	}

	if room := core.CleanString(us.Room); room != "" {
		us.Room = room
	} else {
		us.Room = orig.Room
	}

	if us.Capacity == nil {
		us.Capacity = orig.Capacity
	}

	return validate.Struct(us)
}

// NewStudent contains information needed to add a student by hand.
// Without a ClassID the student lands in staging.
type NewStudent struct {
	Name         string     `json:"name" validate:"required,notblank"`
	ClassID      *uuid.UUID `json:"class_id"`
	OriginGrade  string     `json:"origin_class_name"`
	OriginSuffix string     `json:"origin_class_turma"`
	Unit         Unit       `json:"unit" validate:"omitempty,unit"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.OriginGrade = core.CleanString(ns.OriginGrade)
	ns.OriginSuffix = core.CleanString(ns.OriginSuffix)
	ns.Unit = Unit(core.CleanString(string(ns.Unit), true /* lower */))
	return validate.Struct(ns)
}

type StudentFilter struct {
	IDs       []uuid.UUID
	Staged    *bool
	SectionID uuid.UUID
}

// Placement is a single roster write: student StudentID now belongs to SectionID (or Unassigned) in Unit.
type Placement struct {
	StudentID uuid.UUID
	SectionID uuid.UUID
	Unit      Unit
}

// SortSections orders sections in place by the given orderings, then by id.
// Supported fields: name, grade, unit, created_at.
func SortSections(sections []Section, orderings ...core.DBOrdering) {
	sort.SliceStable(sections, func(i, j int) bool {
		a, b := sections[i], sections[j]
		for _, ord := range orderings {
			var cmp int
			switch ord.Field {
			case "name":
				cmp = compareStrings(a.Name, b.Name)
			case "grade":
				cmp = compareStrings(a.Grade, b.Grade)
			case "unit":
				cmp = compareStrings(string(a.Unit), string(b.Unit))
			case "created_at":
				cmp = compareTimes(a.CreatedAt, b.CreatedAt)
			}
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return a.ID.String() < b.ID.String()
	})
}

// SectionOrderingFields are the fields SortSections and the SQL repository accept.
var SectionOrderingFields = []string{"name", "grade", "unit", "created_at"}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

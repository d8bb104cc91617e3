package enrollment

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/placement/core"
)

// Selection is the set of staged students an operator has picked. The zero value is empty.
type Selection map[uuid.UUID]struct{}

func NewSelection(ids ...uuid.UUID) Selection {
	sel := make(Selection, len(ids))
	for _, id := range ids {
		sel[id] = struct{}{}
	}
	return sel
}

func (s Selection) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s Selection) Len() int {
	return len(s)
}

// IDs returns the selected ids, sorted.
func (s Selection) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Without returns a copy of s minus ids.
func (s Selection) Without(ids ...uuid.UUID) Selection {
	next := s.clone()
	for _, id := range ids {
		delete(next, id)
	}
	return next
}

func (s Selection) clone() Selection {
	next := make(Selection, len(s))
	for id := range s {
		next[id] = struct{}{}
	}
	return next
}

// OriginGroup returns the key shared by every record imported with the same origin label,
// "" when the record has no origin information.
func OriginGroup(rec StudentRecord) string {
	grade := core.NormalizeLabel(rec.OriginGrade)
	suffix := core.NormalizeLabel(effectiveSuffix(rec.OriginGrade, rec.OriginSuffix))
	if grade == "" && suffix == "" {
		return ""
	}
	return grade + "\x00" + suffix
}

// ToggleSelection flips the clicked record and every staged record of the same origin group.
// Records without origin toggle alone. current is never modified.
func ToggleSelection(clicked uuid.UUID, current Selection, staged []StudentRecord) Selection {
	next := current.clone()
	members := []uuid.UUID{clicked}
	for _, rec := range staged {
		if rec.ID != clicked {
			continue
		}
		if group := OriginGroup(rec); group != "" {
			members = members[:0]
			for _, other := range staged {
				if OriginGroup(other) == group {
					members = append(members, other.ID)
				}
			}
		}
		break
	}

	selecting := !current.Has(clicked)
	for _, id := range members {
		if selecting {
			next[id] = struct{}{}
		} else {
			delete(next, id)
		}
	}
	return next
}

// StagingGroup is a set of staged students that share an origin label.
type StagingGroup struct {
	Label      string      `json:"label"`
	StudentIDs []uuid.UUID `json:"student_ids"`
}

// StagingPool is a snapshot of the students not yet placed in any section.
type StagingPool struct {
	records []StudentRecord
}

// NewStagingPool keeps the staged records only, ordered by name.
func NewStagingPool(records []StudentRecord) *StagingPool {
	staged := make([]StudentRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsStaged() {
			staged = append(staged, rec)
		}
	}
	sort.SliceStable(staged, func(i, j int) bool {
		if staged[i].Name != staged[j].Name {
			return staged[i].Name < staged[j].Name
		}
		return staged[i].ID.String() < staged[j].ID.String()
	})
	return &StagingPool{records: staged}
}

func (p *StagingPool) Records() []StudentRecord {
	return p.records
}

func (p *StagingPool) Len() int {
	return len(p.records)
}

func (p *StagingPool) Toggle(clicked uuid.UUID, current Selection) Selection {
	return ToggleSelection(clicked, current, p.records)
}

// Groups lists origin groups in order of first appearance. Records without origin are left out.
func (p *StagingPool) Groups() []StagingGroup {
	var (
		groups []StagingGroup
		index  = make(map[string]int)
	)
	for _, rec := range p.records {
		key := OriginGroup(rec)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, StagingGroup{Label: rec.OriginLabel()})
		}
		groups[i].StudentIDs = append(groups[i].StudentIDs, rec.ID)
	}
	return groups
}

// ListMissingOrigins returns the distinct origin labels of staged records that do not
// correspond to any section. A section of that name in any unit counts, a grade only counts when it
// points at a single section, within the record's unit or overall. Sorted, never mutates.
func (p *StagingPool) ListMissingOrigins(sections []Section) []string {
	var (
		labels  = make(map[string]string)
		matched = make(map[string]bool)
		keys    []string
	)
	for _, rec := range p.records {
		key := OriginGroup(rec)
		if key == "" || matched[key] {
			continue
		}
		if _, ok := labels[key]; !ok {
			labels[key] = rec.OriginLabel()
			keys = append(keys, key)
		}
		matched[key] = originMatchesAnySection(rec, sections)
	}

	var missing []string
	for _, key := range keys {
		if !matched[key] {
			missing = append(missing, labels[key])
		}
	}
	sort.Strings(missing)
	return missing
}

func originMatchesAnySection(rec StudentRecord, sections []Section) bool {
	in := ResolveInput{Grade: rec.OriginGrade, Suffix: rec.OriginSuffix, Unit: rec.Unit}
	if combined := in.combinedKey(); combined != "" {
		for _, sec := range sections {
			if core.NormalizeLabel(sec.Name) == combined {
				return true
			}
		}
	}
	if _, ok := matchByGrade(true)(in, sections); ok {
		return true
	}
	_, ok := matchByGrade(false)(in, sections)
	return ok
}

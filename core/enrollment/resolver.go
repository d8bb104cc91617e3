package enrollment

import (
	"github.com/trezcool/placement/core"
)

// ResolveInput is the origin information of one external row.
type ResolveInput struct {
	Grade  string
	Suffix string
	Unit   Unit
}

// effectiveSuffix drops suffixes that merely repeat the grade ("1º Ano" / "1 ano").
func effectiveSuffix(grade, suffix string) string {
	if core.NormalizeLabel(suffix) == core.NormalizeLabel(grade) {
		return ""
	}
	return suffix
}

func originLabel(grade, suffix string) string {
	grade = core.CleanString(grade)
	suffix = core.CleanString(effectiveSuffix(grade, suffix))
	switch {
	case suffix == "":
		return grade
	case grade == "":
		return suffix
	default:
		return grade + " " + suffix
	}
}

func (in ResolveInput) Label() string {
	return originLabel(in.Grade, in.Suffix)
}

func (in ResolveInput) combinedKey() string {
	return core.NormalizeLabel(in.Grade + effectiveSuffix(in.Grade, in.Suffix))
}

func (in ResolveInput) gradeKey() string {
	return core.NormalizeLabel(in.Grade)
}

// Strategy is one step of the resolution chain. Match reports a section only when exactly one matches.
type Strategy struct {
	Name  string
	Match func(in ResolveInput, sections []Section) (Section, bool)
}

// DefaultStrategies go from the most to the least specific match.
var DefaultStrategies = []Strategy{
	{Name: "name+unit", Match: matchByName(true)},
	{Name: "name", Match: matchByName(false)},
	{Name: "grade+unit", Match: matchByGrade(true)},
	{Name: "grade", Match: matchByGrade(false)},
}

func matchByName(sameUnit bool) func(ResolveInput, []Section) (Section, bool) {
	return func(in ResolveInput, sections []Section) (Section, bool) {
		key := in.combinedKey()
		if key == "" {
			return Section{}, false
		}
		return uniqueMatch(sections, func(sec Section) bool {
			return core.NormalizeLabel(sec.Name) == key && (!sameUnit || sec.Unit == in.Unit)
		})
	}
}

func matchByGrade(sameUnit bool) func(ResolveInput, []Section) (Section, bool) {
	return func(in ResolveInput, sections []Section) (Section, bool) {
		key := in.gradeKey()
		if key == "" {
			return Section{}, false
		}
		return uniqueMatch(sections, func(sec Section) bool {
			return core.NormalizeLabel(sec.Grade) == key && (!sameUnit || sec.Unit == in.Unit)
		})
	}
}

func uniqueMatch(sections []Section, match func(Section) bool) (Section, bool) {
	var (
		found Section
		count int
	)
	for _, sec := range sections {
		if match(sec) {
			found = sec
			count++
			if count > 1 {
				return Section{}, false
			}
		}
	}
	return found, count == 1
}

// Resolver maps external origin labels onto the sections currently configured.
// It is stateless and safe for concurrent use.
type Resolver struct {
	strategies []Strategy
}

// NewResolver returns a Resolver running strategies in order, DefaultStrategies when none are given.
func NewResolver(strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Resolver{strategies: strategies}
}

// Resolve is deterministic: the same input and sections always produce the same result.
// An ambiguous input is never guessed, it stays Unresolved.
func (r *Resolver) Resolve(in ResolveInput, sections []Section) ResolutionResult {
	for _, strategy := range r.strategies {
		if sec, ok := strategy.Match(in, sections); ok {
			return resolvedTo(sec, strategy.Name)
		}
	}
	return unresolved(in.Label())
}

package diagnosis

import (
	"github.com/clinica/clinica/internal/domain/knowledge"
)

const (
	// MinScore is the exclusive lower bound for accepting a match.
	MinScore = 0.3
	// FullCoverageBonus multiplies the score of a condition whose symptoms
	// were all reported. The product is not capped at 1.
	FullCoverageBonus = 1.5
)

type set map[string]struct{}

func newSet(items []string, normalize func(string) string) set {
	s := make(set, len(items))
	for _, it := range items {
		if normalize != nil {
			it = normalize(it)
		}
		s[it] = struct{}{}
	}
	return s
}

// Score compares reported symptoms against a condition's symptoms. It is
// the Jaccard coefficient |R∩C|/|R∪C|, 0 for an empty union, multiplied by
// FullCoverageBonus when C ⊆ R.
func Score(reported, condition []string) float64 {
	s, _ := score(newSet(reported, nil), newSet(condition, nil))
	return s
}

func score(reported, condition set) (float64, int) {
	inter := 0
	for s := range condition {
		if _, ok := reported[s]; ok {
			inter++
		}
	}
	union := len(reported) + len(condition) - inter
	if union == 0 {
		return 0, 0
	}
	v := float64(inter) / float64(union)
	if inter == len(condition) {
		v *= FullCoverageBonus
	}
	return v, inter
}

type entry struct {
	cond     knowledge.Condition
	symptoms set
}

// Matcher finds the catalog condition closest to a set of reported
// symptoms. It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	entries   []entry
	normalize func(string) string
}

type Option func(*Matcher)

// WithNormalizer applies fn to both catalog and reported symptom labels
// before comparing them. Without it labels must match byte for byte. fn
// must be safe for concurrent use.
func WithNormalizer(fn func(string) string) Option {
	return func(m *Matcher) { m.normalize = fn }
}

// NewMatcher indexes the scorable conditions of kb. Conditions without
// symptoms are left out.
func NewMatcher(kb *knowledge.KnowledgeBase, opts ...Option) *Matcher {
	m := &Matcher{}
	for _, o := range opts {
		o(m)
	}
	kb.Each(func(c knowledge.Condition) bool {
		if !c.Scorable() {
			return true
		}
		m.entries = append(m.entries, entry{cond: c, symptoms: newSet(c.Symptoms, m.normalize)})
		return true
	})
	return m
}

// Size returns the number of scorable conditions.
func (m *Matcher) Size() int {
	return len(m.entries)
}

// Analyze returns the best-scoring condition for symptoms. A condition
// replaces the current best only with a strictly greater score, so ties go
// to the earliest condition in catalog order. The match is accepted only
// when its score exceeds MinScore; otherwise ok is false. Empty input
// returns immediately without scoring.
func (m *Matcher) Analyze(symptoms []string) (res Result, ok bool) {
	if len(symptoms) == 0 {
		return Result{}, false
	}
	reported := newSet(symptoms, m.normalize)

	best := -1
	bestScore := 0.0
	for i, e := range m.entries {
		s, _ := score(reported, e.symptoms)
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore <= MinScore {
		return Result{}, false
	}
	return newResult(m.entries[best].cond, bestScore), true
}

// Rank scores every scorable condition in catalog order.
func (m *Matcher) Rank(symptoms []string) []Candidate {
	if len(symptoms) == 0 {
		return nil
	}
	reported := newSet(symptoms, m.normalize)
	out := make([]Candidate, 0, len(m.entries))
	for _, e := range m.entries {
		s, inter := score(reported, e.symptoms)
		out = append(out, Candidate{
			Category:  e.cond.Category,
			Condition: e.cond.Name,
			Score:     s,
			Matched:   inter,
			FullMatch: inter == len(e.symptoms),
		})
	}
	return out
}

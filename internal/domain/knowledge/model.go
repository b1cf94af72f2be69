package knowledge

import "strings"

// Urgency is the severity label attached to a condition.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyModerate Urgency = "moderate"
	UrgencyHigh     Urgency = "high"
	UrgencyUnknown  Urgency = "unknown"
)

var urgencyAliases = map[string]Urgency{
	"low":      UrgencyLow,
	"baixa":    UrgencyLow,
	"moderate": UrgencyModerate,
	"moderada": UrgencyModerate,
	"media":    UrgencyModerate,
	"média":    UrgencyModerate,
	"high":     UrgencyHigh,
	"alta":     UrgencyHigh,
}

// ParseUrgency maps a catalog urgency label to its canonical value. The
// second return value is false for labels outside the known vocabulary.
func ParseUrgency(s string) (Urgency, bool) {
	u, ok := urgencyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return UrgencyUnknown, false
	}
	return u, true
}

// Condition is one entry of the catalog, identified by (Category, Name).
type Condition struct {
	Category       string   `json:"category"`
	Name           string   `json:"name"`
	Label          string   `json:"label"`
	Symptoms       []string `json:"symptoms"`
	Recommendation string   `json:"recommendation"`
	Urgency        Urgency  `json:"urgency"`
	Exams          []string `json:"exams,omitempty"`
	Specialist     string   `json:"specialist,omitempty"`
	RiskFactors    []string `json:"risk_factors,omitempty"`
}

// Scorable reports whether the condition carries any symptom to match
// against. Entries without symptoms stay listed but never match.
func (c Condition) Scorable() bool {
	return len(c.Symptoms) > 0
}

// Category is an ordered group of conditions.
type Category struct {
	Name       string
	Conditions []Condition
}

// KnowledgeBase is the read-only condition catalog. Category and condition
// order is the order of the source document; the zero value is an empty
// catalog. Accessors return copies, so a KnowledgeBase may be shared across
// goroutines without locking.
type KnowledgeBase struct {
	categories []Category
	catPos     map[string]int
	index      map[string]map[string]int
	flat       []Condition
}

// New builds a knowledge base from categories in iteration order. Later
// duplicate (category, condition) pairs replace the earlier attributes but
// keep the earlier position.
func New(categories []Category) *KnowledgeBase {
	kb := &KnowledgeBase{
		catPos: make(map[string]int),
		index:  make(map[string]map[string]int),
	}
	for _, cat := range categories {
		pos, seen := kb.catPos[cat.Name]
		if !seen {
			pos = len(kb.categories)
			kb.catPos[cat.Name] = pos
			kb.categories = append(kb.categories, Category{Name: cat.Name})
			kb.index[cat.Name] = make(map[string]int)
		}
		for _, cond := range cat.Conditions {
			cond.Category = cat.Name
			cond = cloneCondition(cond)
			if i, dup := kb.index[cat.Name][cond.Name]; dup {
				kb.categories[pos].Conditions[i] = cond
				continue
			}
			kb.index[cat.Name][cond.Name] = len(kb.categories[pos].Conditions)
			kb.categories[pos].Conditions = append(kb.categories[pos].Conditions, cond)
		}
	}
	for _, cat := range kb.categories {
		kb.flat = append(kb.flat, cat.Conditions...)
	}
	return kb
}

// Empty returns a knowledge base with no conditions.
func Empty() *KnowledgeBase {
	return New(nil)
}

// Len returns the number of conditions across all categories.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.flat)
}

// CategoryNames returns category names in document order.
func (kb *KnowledgeBase) CategoryNames() []string {
	if kb == nil {
		return nil
	}
	names := make([]string, 0, len(kb.categories))
	for _, c := range kb.categories {
		names = append(names, c.Name)
	}
	return names
}

// Conditions returns every condition in knowledge-base order.
func (kb *KnowledgeBase) Conditions() []Condition {
	if kb == nil {
		return nil
	}
	out := make([]Condition, len(kb.flat))
	for i, c := range kb.flat {
		out[i] = cloneCondition(c)
	}
	return out
}

// Each calls fn for every condition in knowledge-base order until fn
// returns false. The condition passed to fn must not be modified.
func (kb *KnowledgeBase) Each(fn func(Condition) bool) {
	if kb == nil {
		return
	}
	for _, c := range kb.flat {
		if !fn(c) {
			return
		}
	}
}

// Lookup returns the condition identified by (category, name).
func (kb *KnowledgeBase) Lookup(category, name string) (Condition, bool) {
	if kb == nil {
		return Condition{}, false
	}
	pos, ok := kb.catPos[category]
	if !ok {
		return Condition{}, false
	}
	i, ok := kb.index[category][name]
	if !ok {
		return Condition{}, false
	}
	return cloneCondition(kb.categories[pos].Conditions[i]), true
}

// Vocabulary returns every distinct symptom label in first-seen order.
func (kb *KnowledgeBase) Vocabulary() []string {
	if kb == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range kb.flat {
		for _, s := range c.Symptoms {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func cloneCondition(c Condition) Condition {
	c.Symptoms = cloneStrings(c.Symptoms)
	c.Exams = cloneStrings(c.Exams)
	c.RiskFactors = cloneStrings(c.RiskFactors)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Package stats aggregates diagnosis outcomes: how many analyses ran, how many
// produced a visit, and how those visits split by urgency and diagnosis.
package stats

import (
	"sort"

	"github.com/clinica/clinica/internal/domain/visit"
)

// DefaultTop is the number of diagnoses reported by default.
const DefaultTop = 5

// Count is one labelled total.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is a snapshot of a Tally.
type Summary struct {
	Analysed     int     `json:"analysed"`
	Matched      int     `json:"matched"`
	ByUrgency    []Count `json:"by_urgency"`
	TopDiagnoses []Count `json:"top_diagnoses"`
}

// Tally accumulates outcomes. The zero value is ready to use. A Tally is not
// safe for concurrent use.
type Tally struct {
	analysed  int
	matched   int
	urgency   counter
	diagnoses counter
}

// Add counts a recorded visit as a matched analysis.
func (t *Tally) Add(r *visit.Record) {
	t.analysed++
	t.matched++
	t.urgency.inc(r.Urgency)
	t.diagnoses.inc(r.Diagnosis)
}

// Miss counts an analysis that produced no diagnosis.
func (t *Tally) Miss() {
	t.analysed++
}

// Summary returns totals with counts sorted by descending count; equal
// counts keep the order in which their label was first seen. top limits the
// diagnosis list and falls back to DefaultTop when not positive.
func (t *Tally) Summary(top int) Summary {
	if top <= 0 {
		top = DefaultTop
	}
	diag := t.diagnoses.sorted()
	if len(diag) > top {
		diag = diag[:top]
	}
	return Summary{
		Analysed:     t.analysed,
		Matched:      t.matched,
		ByUrgency:    t.urgency.sorted(),
		TopDiagnoses: diag,
	}
}

// FromRecords tallies an existing visit log.
func FromRecords(records []*visit.Record) *Tally {
	t := &Tally{}
	for _, r := range records {
		t.Add(r)
	}
	return t
}

type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) inc(label string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) sorted() []Count {
	out := make([]Count, 0, len(c.order))
	for _, l := range c.order {
		out = append(out, Count{Label: l, Count: c.counts[l]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

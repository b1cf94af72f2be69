package stats

import (
	"testing"

	"github.com/clinica/clinica/internal/domain/visit"
)

func rec(diagnosis, urgency string) *visit.Record {
	return &visit.Record{Diagnosis: diagnosis, Urgency: urgency}
}

func TestTally_ZeroValue(t *testing.T) {
	var tl Tally
	s := tl.Summary(0)
	if s.Analysed != 0 || s.Matched != 0 || len(s.ByUrgency) != 0 || len(s.TopDiagnoses) != 0 {
		t.Errorf("expected empty summary, got %+v", s)
	}
}

func TestTally_CountsAndOrdering(t *testing.T) {
	var tl Tally
	tl.Add(rec("Gripe", "low"))
	tl.Add(rec("Malária", "high"))
	tl.Add(rec("Dengue", "high"))
	tl.Add(rec("Malária", "high"))
	tl.Miss()
	tl.Miss()

	s := tl.Summary(5)
	if s.Analysed != 6 || s.Matched != 4 {
		t.Errorf("expected 6 analysed, 4 matched; got %d, %d", s.Analysed, s.Matched)
	}
	if len(s.ByUrgency) != 2 || s.ByUrgency[0] != (Count{"high", 3}) || s.ByUrgency[1] != (Count{"low", 1}) {
		t.Errorf("unexpected urgency counts: %+v", s.ByUrgency)
	}
	want := []Count{{"Malária", 2}, {"Gripe", 1}, {"Dengue", 1}}
	if len(s.TopDiagnoses) != len(want) {
		t.Fatalf("expected %d diagnoses, got %+v", len(want), s.TopDiagnoses)
	}
	for i := range want {
		if s.TopDiagnoses[i] != want[i] {
			t.Errorf("diagnosis %d: expected %+v, got %+v", i, want[i], s.TopDiagnoses[i])
		}
	}
}

func TestTally_TopLimit(t *testing.T) {
	var tl Tally
	for _, d := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		tl.Add(rec(d, "low"))
	}
	if got := len(tl.Summary(0).TopDiagnoses); got != DefaultTop {
		t.Errorf("expected default top %d, got %d", DefaultTop, got)
	}
	if got := len(tl.Summary(2).TopDiagnoses); got != 2 {
		t.Errorf("expected top 2, got %d", got)
	}
}

func TestFromRecords(t *testing.T) {
	tl := FromRecords([]*visit.Record{rec("Gripe", "low"), rec("Gripe", "low")})
	s := tl.Summary(1)
	if s.Matched != 2 || s.TopDiagnoses[0] != (Count{"Gripe", 2}) {
		t.Errorf("unexpected summary: %+v", s)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/clinica/clinica/internal/domain/diagnosis"
	"github.com/clinica/clinica/internal/domain/knowledge"
	"github.com/clinica/clinica/internal/domain/stats"
	"github.com/clinica/clinica/internal/domain/visit"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCandidates(w io.Writer, cands []diagnosis.Candidate) {
	fmt.Fprintf(w, "%-20s %-24s %-8s %s\n", "CATEGORY", "CONDITION", "SCORE", "MATCHED")
	for _, c := range cands {
		full := ""
		if c.FullMatch {
			full = " (full)"
		}
		fmt.Fprintf(w, "%-20s %-24s %-8.4f %d%s\n", c.Category, c.Condition, c.Score, c.Matched, full)
	}
	fmt.Fprintln(w)
}

func printConditions(w io.Writer, conds []knowledge.Condition) {
	fmt.Fprintf(w, "%-20s %-24s %-10s %s\n", "CATEGORY", "CONDITION", "URGENCY", "SYMPTOMS")
	for _, c := range conds {
		fmt.Fprintf(w, "%-20s %-24s %-10s %s\n", c.Category, c.Name, c.Urgency, strings.Join(c.Symptoms, ", "))
	}
}

func printVisits(w io.Writer, patientID int64, visits []*visit.Record) {
	if len(visits) == 0 {
		fmt.Fprintf(w, "No visits recorded for patient %d\n", patientID)
		return
	}
	fmt.Fprintf(w, "%-20s %-24s %-10s %s\n", "RECORDED", "DIAGNOSIS", "URGENCY", "SYMPTOMS")
	for _, v := range visits {
		fmt.Fprintf(w, "%-20s %-24s %-10s %s\n",
			v.RecordedAt.Format(time.DateTime), v.Diagnosis, v.Urgency, strings.Join(v.Symptoms, ", "))
	}
}

func printSummary(w io.Writer, s stats.Summary, skipped int) {
	fmt.Fprintf(w, "Analysed: %d  Matched: %d", s.Analysed, s.Matched)
	if skipped > 0 {
		fmt.Fprintf(w, "  Skipped: %d", skipped)
	}
	fmt.Fprintln(w)

	if len(s.ByUrgency) > 0 {
		fmt.Fprintln(w, "\nBy urgency:")
		for _, c := range s.ByUrgency {
			fmt.Fprintf(w, "  %-10s %d\n", c.Label, c.Count)
		}
	}
	if len(s.TopDiagnoses) > 0 {
		fmt.Fprintln(w, "\nTop diagnoses:")
		for _, c := range s.TopDiagnoses {
			fmt.Fprintf(w, "  %-24s %d\n", c.Label, c.Count)
		}
	}
}

package visit

import (
	"time"

	"github.com/google/uuid"
)

// Finding is the diagnosis/recommendation/urgency triple persisted with a
// visit.
type Finding struct {
	Diagnosis      string
	Recommendation string
	Urgency        string
}

// Record is one clinic visit with the diagnosis suggested for it.
type Record struct {
	ID             uuid.UUID `json:"id"`
	PatientID      int64     `json:"patient_id"`
	Symptoms       []string  `json:"symptoms"`
	Diagnosis      string    `json:"diagnosis"`
	Recommendation string    `json:"recommendation"`
	Urgency        string    `json:"urgency"`
	Notes          string    `json:"notes,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// NewRecord builds an unsaved visit record. ID and RecordedAt are assigned by
// the Recorder.
func NewRecord(patientID int64, symptoms []string, f Finding, notes string) *Record {
	s := make([]string, len(symptoms))
	copy(s, symptoms)
	return &Record{
		PatientID:      patientID,
		Symptoms:       s,
		Diagnosis:      f.Diagnosis,
		Recommendation: f.Recommendation,
		Urgency:        f.Urgency,
		Notes:          notes,
	}
}

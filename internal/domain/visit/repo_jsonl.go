package visit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONLRecorder appends visit records to a writer, one JSON object per line.
// It is safe for concurrent use.
type JSONLRecorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

func NewJSONLRecorder(w io.Writer) *JSONLRecorder {
	return &JSONLRecorder{enc: json.NewEncoder(w), now: time.Now}
}

func (r *JSONLRecorder) Record(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("write visit %s: %w", rec.ID, err)
	}
	return nil
}

// ReadJSONL decodes a visit log written by JSONLRecorder. Blank lines are
// ignored; a malformed line fails the read with its line number.
func ReadJSONL(r io.Reader) ([]*Record, error) {
	var out []*Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("visit log line %d: %w", line, err)
		}
		out = append(out, &rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read visit log: %w", err)
	}
	return out, nil
}

// ByPatient returns the visits of one patient, most recent first.
func ByPatient(records []*Record, patientID int64) []*Record {
	var out []*Record
	for _, r := range records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out
}

package diagnosis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/domain/visit"
)

// Request is one diagnosis attempt for a patient.
type Request struct {
	PatientID int64    `json:"patient_id"`
	Symptoms  []string `json:"symptoms"`
	Notes     string   `json:"notes,omitempty"`
}

// Outcome reports what Diagnose did. Visit is set only when a match was
// recorded.
type Outcome struct {
	Matched bool          `json:"matched"`
	Result  *Result       `json:"result,omitempty"`
	Visit   *visit.Record `json:"visit,omitempty"`
}

// Service runs the matcher for a request and records matched visits.
type Service struct {
	matcher  *Matcher
	recorder visit.Recorder
	logger   zerolog.Logger
}

// NewService wires a matcher to an optional recorder. A nil recorder
// disables persistence.
func NewService(m *Matcher, recorder visit.Recorder, logger zerolog.Logger) *Service {
	return &Service{matcher: m, recorder: recorder, logger: logger}
}

func (s *Service) Diagnose(ctx context.Context, req Request) (*Outcome, error) {
	logger := s.logger.With().Int64("patient_id", req.PatientID).Logger()

	if len(req.Symptoms) == 0 {
		logger.Debug().Msg("no symptoms reported")
		return &Outcome{}, nil
	}

	if logger.GetLevel() <= zerolog.DebugLevel {
		for _, c := range s.matcher.Rank(req.Symptoms) {
			logger.Debug().
				Str("category", c.Category).
				Str("condition", c.Condition).
				Float64("score", c.Score).
				Msg("candidate scored")
		}
	}

	res, ok := s.matcher.Analyze(req.Symptoms)
	if !ok {
		logger.Info().Strs("symptoms", req.Symptoms).Msg("no satisfactory match")
		return &Outcome{}, nil
	}
	logger.Info().
		Str("category", res.Category).
		Str("condition", res.Condition).
		Float64("confidence", res.Confidence).
		Msg("best match found")

	out := &Outcome{Matched: true, Result: &res}
	if s.recorder == nil {
		return out, nil
	}

	rec := visit.NewRecord(req.PatientID, req.Symptoms, res.Finding(), req.Notes)
	if err := s.recorder.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("record visit: %w", err)
	}
	logger.Debug().Str("visit_id", rec.ID.String()).Msg("visit recorded")
	out.Visit = rec
	return out, nil
}

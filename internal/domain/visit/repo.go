package visit

import "context"

// Recorder persists visit records.
type Recorder interface {
	Record(ctx context.Context, r *Record) error
}

package history

import (
	"context"
	"fmt"

	"github.com/ahmethakanbesel/currency-api/internal/job"
)

// Process dispatches a claimed ingestion run to the matching job body,
// satisfying job.Processor.
func (j *Jobs) Process(ctx context.Context, r *job.Run) error {
	switch r.Type {
	case job.TypeHourly:
		return j.RunHourly(ctx)
	case job.TypeDaily:
		return j.RunDaily(ctx)
	default:
		return fmt.Errorf("unknown job type %q", r.Type)
	}
}

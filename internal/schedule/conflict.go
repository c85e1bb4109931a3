package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
)

// Window is a half-open time interval.
type Window struct {
	Start time.Time
	End   time.Time
}

func WindowOf(a *model.Appointment) Window {
	return Window{Start: a.StartDT.Time, End: a.EndDT.Time}
}

// Overlaps reports whether the intervals share more than an endpoint.
func (w Window) Overlaps(other Window) bool {
	return other.End.After(w.Start) && other.Start.Before(w.End)
}

// FindConflict returns the first appointment in existing whose window
// overlaps candidate, skipping the appointment with id exclude. It returns
// nil when there is none.
func FindConflict(existing []*model.Appointment, candidate Window, exclude *uuid.UUID) *model.Appointment {
	for _, a := range existing {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if candidate.Overlaps(WindowOf(a)) {
			return a
		}
	}
	return nil
}

// CheckConflict wraps FindConflict into a KindOverlap error.
func CheckConflict(existing []*model.Appointment, candidate Window, exclude *uuid.UUID) error {
	hit := FindConflict(existing, candidate, exclude)
	if hit == nil {
		return nil
	}
	return &Error{
		Kind: KindOverlap,
		Message: fmt.Sprintf("appointment overlaps with appointment %s (%s to %s)",
			hit.ID, hit.StartDT, hit.EndDT),
		ConflictID: hit.ID,
	}
}

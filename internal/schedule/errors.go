package schedule

import (
	"github.com/google/uuid"
)

// Kind classifies why a proposed appointment was rejected.
type Kind string

const (
	KindCrossDay             Kind = "cross_day_appointment"
	KindNonOperatingDay      Kind = "non_operating_day"
	KindInvertedWindow       Kind = "inverted_window"
	KindOutsideBusinessHours Kind = "outside_business_hours"
	KindOverlap              Kind = "overlapping_appointment"
)

// Error is a rejected appointment. Two errors match under errors.Is when
// their kinds are equal, so callers can compare against the sentinels below.
type Error struct {
	Kind    Kind
	Message string
	// ConflictID is set for KindOverlap.
	ConflictID uuid.UUID
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrCrossDayAppointment    = &Error{Kind: KindCrossDay, Message: "appointment must start and end on the same day"}
	ErrNonOperatingDay        = &Error{Kind: KindNonOperatingDay, Message: "clinic does not operate on that day"}
	ErrInvertedWindow         = &Error{Kind: KindInvertedWindow, Message: "appointment start must not be after its end"}
	ErrOutsideBusinessHours   = &Error{Kind: KindOutsideBusinessHours, Message: "appointment is outside business hours"}
	ErrOverlappingAppointment = &Error{Kind: KindOverlap, Message: "appointment overlaps with an existing appointment"}
)

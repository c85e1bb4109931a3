package model

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	Base
	PatientName string    `db:"patient_name" json:"patient_name"`
	Comment     *string   `db:"comment" json:"comment"`
	StartDT     DateTime  `db:"start_dt" json:"start_dt"`
	EndDT       DateTime  `db:"end_dt" json:"end_dt"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
}

// AppointmentRequest is the body of POST and PUT /appointments. PUT replaces
// every field, including the owning doctor.
type AppointmentRequest struct {
	PatientName string    `json:"patient_name" binding:"required,notblank,max=255"`
	Comment     *string   `json:"comment" binding:"omitempty,max=2000"`
	StartDT     *DateTime `json:"start_dt" binding:"required"`
	EndDT       *DateTime `json:"end_dt" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
}

func (r *AppointmentRequest) Apply(a *Appointment) {
	a.PatientName = r.PatientName
	a.Comment = r.Comment
	a.StartDT = NewDateTime(r.StartDT.Time)
	a.EndDT = NewDateTime(r.EndDT.Time)
	a.DoctorID = r.DoctorID
}

// AppointmentFilter narrows GET /appointments.
type AppointmentFilter struct {
	DoctorID *uuid.UUID
	// From keeps appointments with start_dt >= From.
	From *time.Time
	// Until keeps appointments with end_dt < Until.
	Until *time.Time
	Page
}

// Matches applies the filter's predicates (not the page) to a.
func (f *AppointmentFilter) Matches(a *Appointment) bool {
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.From != nil && a.StartDT.Before(*f.From) {
		return false
	}
	if f.Until != nil && !a.EndDT.Before(*f.Until) {
		return false
	}
	return true
}

package model

import "strings"

type Doctor struct {
	Base
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	Email        string         `db:"email" json:"email"`
	Appointments []*Appointment `db:"-" json:"appointments"`
}

// DoctorRequest is the body of POST and PUT /doctors.
type DoctorRequest struct {
	FirstName string `json:"first_name" binding:"required,notblank,max=100"`
	LastName  string `json:"last_name" binding:"required,notblank,max=100"`
	Email     string `json:"email" binding:"required,email,max=254"`
}

// Apply copies the request onto d. Emails compare case-insensitively.
func (r *DoctorRequest) Apply(d *Doctor) {
	d.FirstName = strings.TrimSpace(r.FirstName)
	d.LastName = strings.TrimSpace(r.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

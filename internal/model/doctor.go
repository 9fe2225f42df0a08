package model

import "time"

// DoctorProfile is the minimal directory row the marketplace exposes. The
// richer profile (documents, badges, bio) lives in the dashboard layer.
type DoctorProfile struct {
	DoctorID  string
	Name      string
	Specialty string
	Email     string
	CreatedAt time.Time
}

package model

import "time"

// User is an account of any role. Doctors additionally get a DoctorProfile
// row keyed by the same id.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

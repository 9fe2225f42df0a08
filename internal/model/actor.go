package model

const (
	RolePatient   = "patient"
	RoleDoctor    = "doctor"
	RoleAssistant = "assistant"
	RoleAdmin     = "admin"
)

// Actor identifies who is performing an operation. It is passed explicitly
// into every service call; nothing reads ambient session state.
type Actor struct {
	UserID string
	Role   string
	// DoctorID is the doctor the actor acts for: the doctor's own id for
	// doctor accounts, the resolved assignment for assistants, empty
	// otherwise.
	DoctorID string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActsForDoctor reports whether the actor may operate on the given doctor's
// data. Admins always may; doctors and assistants only within their scope.
func (a Actor) ActsForDoctor(doctorID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.DoctorID != "" && a.DoctorID == doctorID
}

package scheduling

import "github.com/google/uuid"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
	RoleSystem  = "system"
)

// Actor is the authenticated principal issuing a request.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// SystemActor is used for sweeps and other automatic transitions.
var SystemActor = Actor{Role: RoleSystem}

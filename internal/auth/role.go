package auth

import "strconv"

// Role is the integer tag stored in usuarios.rol_id and carried in the rol_id claim.
// Roles have no ordering; checks are set membership only.
type Role int

const (
	RoleTeacher Role = 1
	RoleStudent Role = 2
	RoleAdmin   Role = 3
)

// AllRoles lists every role accepted at registration.
var AllRoles = []Role{RoleTeacher, RoleStudent, RoleAdmin}

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	case RoleAdmin:
		return "admin"
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

package model

// Roles carried in the JWT "role" claim.  STAFF may browse, claim and
// release their own shifts; MANAGER additionally manages templates,
// the planning window, outcomes and other people's schedules.
const (
	RoleStaff   = "STAFF"
	RoleManager = "MANAGER"
)

// Privileged reports whether the role may act on resources it does
// not own.
func Privileged(role string) bool {
	return role == RoleManager
}

package enums

// ActorRole identifies who is calling the API. Participants submit orders
// for their own account; staff operate the admin surface.
type ActorRole string

const (
	ActorRoleParticipant ActorRole = "participant"
	ActorRoleStaff       ActorRole = "staff"
	ActorRoleAdmin       ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleParticipant,
	ActorRoleStaff,
	ActorRoleAdmin,
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role grants access to operator endpoints.
func (r ActorRole) IsStaff() bool {
	return r == ActorRoleStaff || r == ActorRoleAdmin
}

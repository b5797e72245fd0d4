package enums

import "fmt"

// ActorRole is the coarse permission tier carried in access tokens.
// Fine-grained authority (the on-engine admin set) lives in engine state;
// the role only gates which routes a caller may reach.
type ActorRole string

const (
	ActorRoleAdmin   ActorRole = "admin"
	ActorRolePlayer  ActorRole = "player"
	ActorRoleService ActorRole = "service"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRolePlayer,
	ActorRoleService,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
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

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

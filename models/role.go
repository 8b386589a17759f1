package models

// Role defines allowed roles in the system
type Role string

const (
	RoleClient    Role = "CLIENT"
	RoleCourier   Role = "COURIER"
	RoleAdmin     Role = "ADMIN"
	RolePresident Role = "PRESIDENT"
)

// Capability is a permission a route guard can require.
type Capability int

const (
	CapabilityCourier Capability = iota + 1
	CapabilityAdmin
	CapabilityPresident
)

func (c Capability) String() string {
	switch c {
	case CapabilityCourier:
		return "COURIER"
	case CapabilityAdmin:
		return "ADMIN"
	case CapabilityPresident:
		return "PRESIDENT"
	default:
		return "UNKNOWN"
	}
}

// Capabilities is the set of guards a role satisfies.
type Capabilities struct {
	Courier   bool `json:"requiresCourier"`
	Admin     bool `json:"requiresAdmin"`
	President bool `json:"requiresPresident"`
}

// Has reports whether c is in the set.
func (cs Capabilities) Has(c Capability) bool {
	switch c {
	case CapabilityCourier:
		return cs.Courier
	case CapabilityAdmin:
		return cs.Admin
	case CapabilityPresident:
		return cs.President
	}
	return false
}

// COURIER is a parallel capability: ADMIN and PRESIDENT satisfy it, but a
// COURIER satisfies nothing above itself.
var roleCapabilities = map[Role]Capabilities{
	RoleClient:    {},
	RoleCourier:   {Courier: true},
	RoleAdmin:     {Courier: true, Admin: true},
	RolePresident: {Courier: true, Admin: true, President: true},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capabilities returns the capability set of r; unknown roles get none.
func (r Role) Capabilities() Capabilities {
	return roleCapabilities[r]
}

// Can reports whether r satisfies the capability c.
func (r Role) Can(c Capability) bool {
	return r.Capabilities().Has(c)
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

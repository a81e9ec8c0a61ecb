package model

// Actor is a capability snapshot of the user behind a request: identity,
// role memberships and the elevated-permission bit, as resolved by the
// platform adapter at the moment of the interaction.
type Actor struct {
	ID       string
	Roles    []string
	Elevated bool
}

func (a Actor) HasRole(roleID string) bool {
	for _, r := range a.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

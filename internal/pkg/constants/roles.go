package constants

const (
	Donor     = "donor"
	Recipient = "recipient"
)

// ValidRoles is the set of allowed values for profiles.user_type.
var ValidRoles = []string{Donor, Recipient}

// IsValidRole returns true if role is one of the allowed user types.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

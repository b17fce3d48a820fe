package constants

const (
	CreateListing   = "create_listing"
	EditListing     = "edit_listing"
	DeleteListing   = "delete_listing"
	CompleteListing = "complete_listing"
	ViewOwnListings = "view_own_listings"
	DecideRequest   = "decide_request"
	ViewEvents      = "view_listing_events"
)

// PermissionRoles maps each permission to the user types allowed to perform it.
var PermissionRoles = map[string][]string{
	CreateListing:   {Donor},
	EditListing:     {Donor},
	DeleteListing:   {Donor},
	CompleteListing: {Donor},
	ViewOwnListings: {Donor},
	DecideRequest:   {Donor},
	ViewEvents:      {Donor},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	for _, r := range PermissionRoles[permission] {
		if r == role {
			return true
		}
	}
	return false
}

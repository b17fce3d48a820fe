package constants

// Listing statuses (food_listings.status).
const (
	ListingAvailable = "available"
	ListingReserved  = "reserved"
	ListingCompleted = "completed"
)

// Request statuses (food_requests.status).
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// Units offered by the donate form.
var Units = []string{"portions", "kg", "boxes", "trays"}

// EventTypes are the listing categories shown in the browse filter.
var EventTypes = []string{"wedding", "corporate", "party", "other"}

const (
	DefaultUnit      = "portions"
	DefaultEventType = "other"
)

// Browse sort orders.
const (
	SortNewest       = "newest"
	SortExpiringSoon = "expiring-soon"
	SortQuantityHigh = "quantity-high"
)

func IsValidUnit(u string) bool {
	return contains(Units, u)
}

func IsValidEventType(e string) bool {
	return contains(EventTypes, e)
}

func IsValidSort(s string) bool {
	return s == SortNewest || s == SortExpiringSoon || s == SortQuantityHigh
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package lifecycle

import (
	"fmt"
	"strings"
)

// ReservationPolicy decides when accepted requests reserve a listing.
type ReservationPolicy string

const (
	// ReserveOnFirstAccept reserves the listing as soon as any request is accepted.
	ReserveOnFirstAccept ReservationPolicy = "single"
	// ReserveWhenCovered reserves once accepted quantities cover the listing quantity.
	ReserveWhenCovered ReservationPolicy = "quantity"
)

// ParseReservationPolicy accepts "single" or "quantity" (case-insensitive); empty means single.
func ParseReservationPolicy(s string) (ReservationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ReserveOnFirstAccept):
		return ReserveOnFirstAccept, nil
	case string(ReserveWhenCovered):
		return ReserveWhenCovered, nil
	}
	return "", fmt.Errorf("unknown reservation policy %q", s)
}

// Policy holds the engine's configurable business rules.
type Policy struct {
	Reservation ReservationPolicy
	// CapToRemaining rejects requests (and acceptances) whose quantity exceeds the
	// listing quantity minus the already-accepted total.
	CapToRemaining bool
}

// DefaultPolicy reserves on first acceptance and caps requests to the remaining quantity.
func DefaultPolicy() Policy {
	return Policy{Reservation: ReserveOnFirstAccept, CapToRemaining: true}
}

// Reserves reports whether a listing of quantity with acceptedTotal accepted is reserved.
func (p Policy) Reserves(quantity, acceptedTotal int) bool {
	if acceptedTotal <= 0 {
		return false
	}
	if p.Reservation == ReserveWhenCovered {
		return acceptedTotal >= quantity
	}
	return true
}

// Remaining is the quantity still open for requests.
func Remaining(quantity, acceptedTotal int) int {
	r := quantity - acceptedTotal
	if r < 0 {
		return 0
	}
	return r
}

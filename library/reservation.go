package library

import (
	"sort"
	"time"
)

// Reservation is a member's claim to borrow a book once it comes back.
type Reservation struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"bookId"`
	MemberID   int64     `json:"memberId"`
	ReservedOn time.Time `json:"reservedOn"`
}

// precedes orders reservations by reservation date, the smaller ID wins a tie.
func (r Reservation) precedes(other Reservation) bool {
	if !r.ReservedOn.Equal(other.ReservedOn) {
		return r.ReservedOn.Before(other.ReservedOn)
	}

	return r.ID < other.ID
}

// FirstInLine returns the reservation that is next to be fulfilled.
// The reservations are expected to belong to the same book. found is false for an empty queue.
func FirstInLine(reservations []Reservation) (first Reservation, found bool) {
	for i, reservation := range reservations {
		if i == 0 || reservation.precedes(first) {
			first = reservation
		}
	}

	return first, len(reservations) > 0
}

// InLineOrder returns a copy of the reservations sorted into fulfillment order.
func InLineOrder(reservations []Reservation) []Reservation {
	ordered := make([]Reservation, len(reservations))
	copy(ordered, reservations)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].precedes(ordered[j])
	})

	return ordered
}

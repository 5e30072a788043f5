package memengine

import (
	"maps"

	"github.com/AntonStoeckl/lending-library-go/library"
)

type memoryState struct {
	books        map[int64]library.Book
	members      map[int64]library.Member
	reservations map[int64]library.Reservation
}

func newMemoryState() memoryState {
	return memoryState{
		books:        map[int64]library.Book{},
		members:      map[int64]library.Member{},
		reservations: map[int64]library.Reservation{},
	}
}

// clone copies the state. The records are plain values, so a shallow copy of each map is a deep copy.
func (s memoryState) clone() memoryState {
	return memoryState{
		books:        maps.Clone(s.books),
		members:      maps.Clone(s.members),
		reservations: maps.Clone(s.reservations),
	}
}

func (s memoryState) bookReserved(bookID int64) bool {
	for _, reservation := range s.reservations {
		if reservation.BookID == bookID {
			return true
		}
	}

	return false
}

func (s memoryState) memberReferenced(memberID int64) bool {
	for _, reservation := range s.reservations {
		if reservation.MemberID == memberID {
			return true
		}
	}

	for _, book := range s.books {
		if book.BorrowerID == memberID {
			return true
		}
	}

	return false
}

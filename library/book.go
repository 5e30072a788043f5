package library

import "time"

// Book is one physical copy held by the library.
// A zero BorrowerID means the book is available, LoanedOn is then the zero time.
type Book struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	AcquiredOn time.Time `json:"acquiredOn"`
	BorrowerID int64     `json:"borrowerId,omitempty"`
	LoanedOn   time.Time `json:"loanedOn"`
}

// OnLoan reports whether the book is currently lent to a member.
func (b Book) OnLoan() bool {
	return b.BorrowerID != 0
}

// IsLentTo reports whether the book is currently lent to the given member.
func (b Book) IsLentTo(memberID int64) bool {
	return b.OnLoan() && b.BorrowerID == memberID
}

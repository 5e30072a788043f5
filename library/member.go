package library

// Member is a registered borrower.
type Member struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	LoanCeiling int    `json:"loanCeiling"`
	LoanCount   int    `json:"loanCount"`
}

// AtLoanCeiling reports whether the member may not borrow another book.
func (m Member) AtLoanCeiling() bool {
	return m.LoanCount >= m.LoanCeiling
}

// HasLoans reports whether the member currently borrows at least one book.
func (m Member) HasLoans() bool {
	return m.LoanCount > 0
}

package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Rules_Books(t *testing.T) {
	available := Book{ID: 1}
	lent := Book{ID: 2, BorrowerID: 10, LoanedOn: MustParseDate("2024-01-01")}

	assert.NoError(t, mustBeAvailable(available))
	assert.ErrorIs(t, mustBeAvailable(lent), ErrAlreadyOnLoan)

	assert.NoError(t, mustBeOnLoan(lent))
	assert.ErrorIs(t, mustBeOnLoan(available), ErrNotOnLoan)

	assert.NoError(t, mustNotBeOnLoanForDisposal(available))
	assert.ErrorIs(t, mustNotBeOnLoanForDisposal(lent), ErrOnLoan)

	assert.NoError(t, mustNotBeLentTo(lent, 20))
	assert.ErrorIs(t, mustNotBeLentTo(lent, 10), ErrSelfLoan)
}

func Test_Rules_Members(t *testing.T) {
	assert.NoError(t, mustBeBelowLoanCeiling(Member{ID: 1, LoanCeiling: 2, LoanCount: 1}))
	assert.ErrorIs(t, mustBeBelowLoanCeiling(Member{ID: 1, LoanCeiling: 2, LoanCount: 2}), ErrLoanLimitReached)
	assert.ErrorIs(t, mustBeBelowLoanCeiling(Member{ID: 1}), ErrLoanLimitReached)

	assert.NoError(t, mustHaveNoLoans(Member{ID: 1, LoanCeiling: 2}))
	assert.ErrorIs(t, mustHaveNoLoans(Member{ID: 1, LoanCeiling: 2, LoanCount: 1}), ErrHasLoans)
}

func Test_Rules_Reservations(t *testing.T) {
	first := Reservation{ID: 1, BookID: 7, MemberID: 10, ReservedOn: MustParseDate("2024-01-01")}
	second := Reservation{ID: 2, BookID: 7, MemberID: 20, ReservedOn: MustParseDate("2024-01-02")}
	queue := []Reservation{second, first}

	assert.NoError(t, mustNotBeReserved(7, nil))
	assert.ErrorIs(t, mustNotBeReserved(7, queue), ErrReserved)

	assert.NoError(t, mustBeFirstInLine(first, queue))

	err := mustBeFirstInLine(second, queue)
	assert.ErrorIs(t, err, ErrNotFirstInLine)

	var notFirstInLine *NotFirstInLineError
	assert.True(t, errors.As(err, &notFirstInLine))
	assert.Equal(t, int64(1), notFirstInLine.FirstInLineID)
	assert.Contains(t, err.Error(), "first in line is reservation 1")
}

func Test_Rules_Dates(t *testing.T) {
	loanDate := MustParseDate("2024-01-05")

	assert.NoError(t, mustNotPrecede(loanDate, loanDate, "return date", "loan date"))
	assert.NoError(t, mustNotPrecede(MustParseDate("2024-01-06"), loanDate, "return date", "loan date"))

	err := mustNotPrecede(MustParseDate("2024-01-04"), loanDate, "return date", "loan date")
	assert.ErrorIs(t, err, ErrDateOrderViolation)
	assert.EqualError(t, err, "return date 2024-01-04 is earlier than loan date 2024-01-05: "+ErrDateOrderViolation.Error())
}

func Test_Rules_MustAffectOneRow(t *testing.T) {
	assert.NoError(t, mustAffectOneRow(1, "book", 1))

	err := mustAffectOneRow(0, "book", 1)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.True(t, IsRetryable(err))
}

func Test_Errors_Classification(t *testing.T) {
	driverErr := errors.New("broken pipe")

	testCases := []struct {
		description string
		err         error
		outcome     string
	}{
		{"success", nil, OutcomeSuccess},
		{"rule violation", bookNotFound(1), OutcomeRuleViolation},
		{"lost race", lostRace("book", 1), OutcomeConcurrentModification},
		{"closed", ErrClosed, OutcomeClosed},
		{"store failure", asStoreFailure(driverErr), OutcomeStoreUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.outcome, outcomeOf(tc.err))
		})
	}
}

func Test_AsStoreFailure_KeepsClassifiedErrors(t *testing.T) {
	driverErr := errors.New("broken pipe")
	ruleErr := memberNotFound(10)
	raceErr := lostRace("member", 10)

	assert.Nil(t, asStoreFailure(nil))
	assert.Same(t, ruleErr, asStoreFailure(ruleErr))
	assert.Same(t, raceErr, asStoreFailure(raceErr))
	assert.ErrorIs(t, asStoreFailure(ErrClosed), ErrClosed)

	wrapped := asStoreFailure(driverErr)
	assert.ErrorIs(t, wrapped, ErrStoreUnavailable)
	assert.ErrorIs(t, wrapped, driverErr)
	assert.Same(t, wrapped, asStoreFailure(wrapped))
}

func Test_RuleOf_NamesTheViolatedRule(t *testing.T) {
	assert.Equal(t, ErrReserved.Error(), ruleOf(mustNotBeReserved(7, []Reservation{{ID: 1, BookID: 7}})))
	assert.Equal(t, "other", ruleOf(errors.New("something else")))
}

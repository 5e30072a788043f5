package library

// Operation names used for span names, metric labels and log messages.
const (
	operationAcquireBook        = "acquire_book"
	operationDisposeBook        = "dispose_book"
	operationFindBook           = "find_book"
	operationListLoans          = "list_loans"
	operationEnrollMember       = "enroll_member"
	operationWithdrawMember     = "withdraw_member"
	operationFindMember         = "find_member"
	operationLendBook           = "lend_book"
	operationRenewLoan          = "renew_loan"
	operationReturnBook         = "return_book"
	operationReserveBook        = "reserve_book"
	operationFulfillReservation = "fulfill_reservation"
	operationCancelReservation  = "cancel_reservation"
	operationReservationQueue   = "reservation_queue"
	operationClose              = "close"
)

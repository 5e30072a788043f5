package library

import (
	"context"
	"fmt"
)

// MemberService manages member registration.
type MemberService struct {
	runner *runner
}

// Enroll registers a new member with no loans.
func (s *MemberService) Enroll(ctx context.Context, id int64, name, phone string, loanCeiling int) error {
	return s.runner.run(ctx, operationEnrollMember, func(ctx context.Context, uow UnitOfWork) error {
		if err := mustHaveValidLoanCeiling(id, loanCeiling); err != nil {
			return err
		}

		exists, err := uow.Members().Exists(ctx, id)
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("member %d: %w", id, ErrAlreadyExists)
		}

		return uow.Members().Insert(ctx, Member{
			ID:          id,
			Name:        name,
			Phone:       phone,
			LoanCeiling: loanCeiling,
		})
	})
}

// Withdraw removes a member without loans or reservations.
func (s *MemberService) Withdraw(ctx context.Context, id int64) error {
	return s.runner.run(ctx, operationWithdrawMember, func(ctx context.Context, uow UnitOfWork) error {
		member, found, err := uow.Members().Get(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return memberNotFound(id)
		}

		if err = mustHaveNoLoans(member); err != nil {
			return err
		}

		reserved, err := uow.Reservations().ExistsForMember(ctx, id)
		if err != nil {
			return err
		}

		if reserved {
			return fmt.Errorf("member %d: %w", id, ErrHasReservations)
		}

		rowsAffected, err := uow.Members().Delete(ctx, id)
		if err != nil {
			return err
		}

		if rowsAffected == 0 {
			return memberNotFound(id)
		}

		return nil
	})
}

// Find returns the member with the given id.
func (s *MemberService) Find(ctx context.Context, id int64) (Member, error) {
	var member Member

	err := s.runner.run(ctx, operationFindMember, func(ctx context.Context, uow UnitOfWork) error {
		var found bool
		var err error

		member, found, err = uow.Members().Get(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return memberNotFound(id)
		}

		return nil
	})
	if err != nil {
		return Member{}, err
	}

	return member, nil
}

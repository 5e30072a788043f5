package memengine

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/lending-library-go/library"
)

type memberStore struct {
	uow *unitOfWork
}

func (s memberStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.uow.access(ctx, func(state memoryState) error {
		_, exists = state.members[id]
		return nil
	})

	return exists, err
}

func (s memberStore) Get(ctx context.Context, id int64) (library.Member, bool, error) {
	var member library.Member
	var found bool

	err := s.uow.access(ctx, func(state memoryState) error {
		member, found = state.members[id]
		return nil
	})

	return member, found, err
}

func (s memberStore) Insert(ctx context.Context, member library.Member) error {
	return s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.members[member.ID]; exists {
			return fmt.Errorf("insert member %d: %w", member.ID, library.ErrAlreadyExists)
		}

		state.members[member.ID] = member

		return nil
	})
}

func (s memberStore) IncrementLoanCount(ctx context.Context, id int64) (int64, error) {
	return s.adjustLoanCount(ctx, id, 1, func(member library.Member) bool {
		return !member.AtLoanCeiling()
	})
}

func (s memberStore) DecrementLoanCount(ctx context.Context, id int64) (int64, error) {
	return s.adjustLoanCount(ctx, id, -1, library.Member.HasLoans)
}

// adjustLoanCount changes the loan count of a member that satisfies guard.
func (s memberStore) adjustLoanCount(
	ctx context.Context,
	id int64,
	delta int,
	guard func(member library.Member) bool,
) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		member, exists := state.members[id]
		if !exists || !guard(member) {
			return nil
		}

		member.LoanCount += delta
		state.members[id] = member
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}

func (s memberStore) Delete(ctx context.Context, id int64) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.members[id]; !exists {
			return nil
		}

		if state.memberReferenced(id) {
			return fmt.Errorf("delete member %d: %w", id, ErrForeignKeyViolation)
		}

		delete(state.members, id)
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}

package model

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError names the lookup key that missed: either Name or ID is set.
type NotFoundError struct {
	Name string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("beer with name %s not found", e.Name)
	}
	return fmt.Sprintf("beer with id %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrBeerNotFound }

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("beer with name %s already registered", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

type CapacityExceededError struct {
	ID       uuid.UUID
	Amount   int
	Quantity int
	Max      int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("incrementing beer %s by %d exceeds the max capacity %d (current quantity %d)",
		e.ID, e.Amount, e.Max, e.Quantity)
}

func (e *CapacityExceededError) Unwrap() error { return ErrStockExceeded }

type InsufficientStockError struct {
	ID       uuid.UUID
	Amount   int
	Quantity int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("decrementing beer %s by %d leaves negative stock (current quantity %d)",
		e.ID, e.Amount, e.Quantity)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Package rules holds the stock decisions for beers. Nothing here touches storage.
package rules

import (
	"beerstock/pkg/beer/domain/model"
)

// DecideRegistration rejects a candidate whose name is already taken by existing.
func DecideRegistration(candidateName string, existing *model.Beer) error {
	if existing != nil {
		return &model.DuplicateNameError{Name: candidateName}
	}
	return nil
}

// DecideIncrement returns the quantity after adding amount. Reaching Max exactly is allowed.
func DecideIncrement(current model.Beer, amount int) (int, error) {
	if amount > current.Max-current.Quantity {
		return current.Quantity, &model.CapacityExceededError{
			ID:       current.ID,
			Amount:   amount,
			Quantity: current.Quantity,
			Max:      current.Max,
		}
	}
	return current.Quantity + amount, nil
}

// DecideDecrement returns the quantity after removing amount. Reaching zero is allowed.
func DecideDecrement(current model.Beer, amount int) (int, error) {
	if amount > current.Quantity {
		return current.Quantity, &model.InsufficientStockError{
			ID:       current.ID,
			Amount:   amount,
			Quantity: current.Quantity,
		}
	}
	return current.Quantity - amount, nil
}

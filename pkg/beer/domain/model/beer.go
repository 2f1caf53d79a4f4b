package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrBeerNotFound      = errors.New("beer not found")
	ErrDuplicateName     = errors.New("beer with this name is already registered")
	ErrStockExceeded     = errors.New("stock would exceed the max capacity")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	ErrInvalidAmount     = errors.New("amount cannot be negative")
	ErrInvalidBeer       = errors.New("invalid beer")
	ErrOptimisticLock    = errors.New("beer has been modified by another transaction")
)

const (
	maxNameLength  = 200
	maxBrandLength = 200
)

type BeerType string

const (
	Lager    BeerType = "LAGER"
	Malzbier BeerType = "MALZBIER"
	Witbier  BeerType = "WITBIER"
	Weiss    BeerType = "WEISS"
	Ale      BeerType = "ALE"
	IPA      BeerType = "IPA"
	Stout    BeerType = "STOUT"
	Pilsen   BeerType = "PILSEN"
)

var beerTypes = map[BeerType]struct{}{
	Lager: {}, Malzbier: {}, Witbier: {}, Weiss: {}, Ale: {}, IPA: {}, Stout: {}, Pilsen: {},
}

func (t BeerType) Valid() bool {
	_, ok := beerTypes[t]
	return ok
}

type Beer struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Brand     string    `db:"brand"`
	Type      BeerType  `db:"type"`
	Max       int       `db:"max"`
	Quantity  int       `db:"quantity"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Validate checks the fields a caller supplies on registration.
func (b Beer) Validate() error {
	switch {
	case !validText(b.Name, maxNameLength):
		return fmt.Errorf("%w: name must be between 1 and %d characters", ErrInvalidBeer, maxNameLength)
	case !validText(b.Brand, maxBrandLength):
		return fmt.Errorf("%w: brand must be between 1 and %d characters", ErrInvalidBeer, maxBrandLength)
	case !b.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBeer, b.Type)
	case b.Max < 1 || b.Max > math.MaxInt32:
		return fmt.Errorf("%w: max must be between 1 and %d", ErrInvalidBeer, math.MaxInt32)
	case b.Quantity < 0 || b.Quantity > b.Max:
		return fmt.Errorf("%w: quantity must be between 0 and max", ErrInvalidBeer)
	}
	return nil
}

// validText reports whether s is valid UTF-8 of 1 to maxChars characters.
func validText(s string, maxChars int) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	return utf8.RuneCountInString(s) <= maxChars
}

// ValidateAmount rejects negative stock adjustments before they reach the service.
func ValidateAmount(amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// BeerRepository is the storage provider. It performs no bounds checking on Quantity.
type BeerRepository interface {
	NextID() (uuid.UUID, error)
	// Create fails with ErrDuplicateName when the name is taken.
	Create(ctx context.Context, beer *Beer) error
	// Update fails with ErrOptimisticLock unless the stored version is beer.Version-1.
	Update(ctx context.Context, beer *Beer) error
	Find(ctx context.Context, id uuid.UUID) (*Beer, error)
	FindByName(ctx context.Context, name string) (*Beer, error)
	ListAll(ctx context.Context) ([]Beer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

package model

import "github.com/google/uuid"

type BeerRegistered struct {
	BeerID   uuid.UUID `json:"beer_id"`
	Name     string    `json:"name"`
	Brand    string    `json:"brand"`
	Max      int       `json:"max"`
	Quantity int       `json:"quantity"`
}

func (e BeerRegistered) Type() string        { return "BeerRegistered" }
func (e BeerRegistered) AggregateID() string { return e.BeerID.String() }

type BeerStockChanged struct {
	BeerID       uuid.UUID `json:"beer_id"`
	ChangeAmount int       `json:"change_amount"` // positive on increment, negative on decrement
	NewQuantity  int       `json:"new_quantity"`
}

func (e BeerStockChanged) Type() string        { return "BeerStockChanged" }
func (e BeerStockChanged) AggregateID() string { return e.BeerID.String() }

type BeerDeleted struct {
	BeerID uuid.UUID `json:"beer_id"`
	Name   string    `json:"name"`
}

func (e BeerDeleted) Type() string        { return "BeerDeleted" }
func (e BeerDeleted) AggregateID() string { return e.BeerID.String() }

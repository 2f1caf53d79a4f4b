package repository

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"beerstock/pkg/beer/domain/model"
)

const beerTable = "beer"

var _ model.BeerRepository = (*MemoryRepository)(nil)

var beerSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		beerTable: {
			Name: beerTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"name": {
					Name:    "name",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
	},
}

// beerRecord is the stored row. Records are immutable once inserted.
type beerRecord struct {
	ID   string
	Name string
	Seq  uint64
	Beer model.Beer
}

// MemoryRepository keeps beers in a go-memdb database. ListAll returns them in insertion order.
type MemoryRepository struct {
	db  *memdb.MemDB
	seq atomic.Uint64
}

func NewMemoryRepository() *MemoryRepository {
	db, err := memdb.NewMemDB(beerSchema)
	if err != nil {
		// beerSchema is static, so this only fires on a programming error.
		panic(err)
	}
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *MemoryRepository) Create(_ context.Context, beer *model.Beer) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	// memdb does not enforce unique indexes on insert.
	existing, err := txn.First(beerTable, "name", beer.Name)
	if err != nil {
		return errors.Wrap(err, "failed to look up beer name")
	}
	if existing != nil {
		return model.ErrDuplicateName
	}

	record := &beerRecord{
		ID:   beer.ID.String(),
		Name: beer.Name,
		Seq:  r.seq.Add(1),
		Beer: *beer,
	}
	if err := txn.Insert(beerTable, record); err != nil {
		return errors.Wrapf(err, "failed to insert beer %s", beer.ID)
	}
	txn.Commit()
	return nil
}

// Update stores the new quantity. Identity fields are fixed at registration.
func (r *MemoryRepository) Update(_ context.Context, beer *model.Beer) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(beerTable, "id", beer.ID.String())
	if err != nil {
		return errors.Wrapf(err, "failed to look up beer %s", beer.ID)
	}
	if raw == nil {
		return model.ErrBeerNotFound
	}
	stored := raw.(*beerRecord)
	if stored.Beer.Version != beer.Version-1 {
		return model.ErrOptimisticLock
	}

	next := *stored
	next.Beer.Quantity = beer.Quantity
	next.Beer.Version = beer.Version
	next.Beer.UpdatedAt = beer.UpdatedAt
	if err := txn.Insert(beerTable, &next); err != nil {
		return errors.Wrapf(err, "failed to update beer %s", beer.ID)
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id uuid.UUID) (*model.Beer, error) {
	return r.first("id", id.String())
}

func (r *MemoryRepository) FindByName(_ context.Context, name string) (*model.Beer, error) {
	return r.first("name", name)
}

func (r *MemoryRepository) first(index, value string) (*model.Beer, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(beerTable, index, value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up beer by %s", index)
	}
	if raw == nil {
		return nil, model.ErrBeerNotFound
	}
	beer := raw.(*beerRecord).Beer
	return &beer, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]model.Beer, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(beerTable, "id")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list beers")
	}
	var records []*beerRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		records = append(records, raw.(*beerRecord))
	}
	slices.SortFunc(records, func(a, b *beerRecord) int { return cmp.Compare(a.Seq, b.Seq) })

	beers := make([]model.Beer, 0, len(records))
	for _, record := range records {
		beers = append(beers, record.Beer)
	}
	return beers, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(beerTable, "id", id.String())
	if err != nil {
		return errors.Wrapf(err, "failed to look up beer %s", id)
	}
	if raw == nil {
		return model.ErrBeerNotFound
	}
	if err := txn.Delete(beerTable, raw); err != nil {
		return errors.Wrapf(err, "failed to delete beer %s", id)
	}
	txn.Commit()
	return nil
}

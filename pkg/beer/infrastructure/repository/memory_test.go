package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beerstock/pkg/beer/domain/model"
)

func newBeer(t *testing.T, repo *MemoryRepository, name string) model.Beer {
	t.Helper()
	id, err := repo.NextID()
	require.NoError(t, err)
	return model.Beer{ID: id, Name: name, Brand: "Ambev", Type: model.Lager, Max: 50, Quantity: 10, Version: 1}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and find", func(t *testing.T) {
		repo := NewMemoryRepository()
		beer := newBeer(t, repo, "Brahma")
		require.NoError(t, repo.Create(ctx, &beer))

		byID, err := repo.Find(ctx, beer.ID)
		require.NoError(t, err)
		assert.Equal(t, beer, *byID)

		byName, err := repo.FindByName(ctx, "Brahma")
		require.NoError(t, err)
		assert.Equal(t, beer.ID, byName.ID)
	})

	t.Run("Returned beers are copies", func(t *testing.T) {
		repo := NewMemoryRepository()
		beer := newBeer(t, repo, "Brahma")
		require.NoError(t, repo.Create(ctx, &beer))

		found, _ := repo.Find(ctx, beer.ID)
		found.Quantity = 0

		again, _ := repo.Find(ctx, beer.ID)
		assert.Equal(t, 10, again.Quantity)
	})

	t.Run("Duplicate name", func(t *testing.T) {
		repo := NewMemoryRepository()
		first := newBeer(t, repo, "Brahma")
		second := newBeer(t, repo, "Brahma")
		require.NoError(t, repo.Create(ctx, &first))

		assert.ErrorIs(t, repo.Create(ctx, &second), model.ErrDuplicateName)
		beers, _ := repo.ListAll(ctx)
		assert.Len(t, beers, 1)
	})

	t.Run("Not found", func(t *testing.T) {
		repo := NewMemoryRepository()

		_, err := repo.Find(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrBeerNotFound)
		_, err = repo.FindByName(ctx, "Skol")
		assert.ErrorIs(t, err, model.ErrBeerNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), model.ErrBeerNotFound)

		beer := newBeer(t, repo, "Brahma")
		beer.Version = 2
		assert.ErrorIs(t, repo.Update(ctx, &beer), model.ErrBeerNotFound)
	})

	t.Run("Update checks version", func(t *testing.T) {
		repo := NewMemoryRepository()
		beer := newBeer(t, repo, "Brahma")
		require.NoError(t, repo.Create(ctx, &beer))

		next := beer
		next.Quantity = 20
		next.Version = 2
		require.NoError(t, repo.Update(ctx, &next))

		stale := beer
		stale.Quantity = 30
		stale.Version = 2
		assert.ErrorIs(t, repo.Update(ctx, &stale), model.ErrOptimisticLock)

		stored, _ := repo.Find(ctx, beer.ID)
		assert.Equal(t, 20, stored.Quantity)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("Update only changes stock fields", func(t *testing.T) {
		repo := NewMemoryRepository()
		beer := newBeer(t, repo, "Brahma")
		require.NoError(t, repo.Create(ctx, &beer))

		next := beer
		next.Name = "Skol"
		next.Max = 500
		next.Quantity = 40
		next.Version = 2
		require.NoError(t, repo.Update(ctx, &next))

		stored, err := repo.FindByName(ctx, "Brahma")
		require.NoError(t, err)
		assert.Equal(t, "Brahma", stored.Name)
		assert.Equal(t, 50, stored.Max)
		assert.Equal(t, 40, stored.Quantity)
		assert.Equal(t, 2, stored.Version)

		_, err = repo.FindByName(ctx, "Skol")
		assert.ErrorIs(t, err, model.ErrBeerNotFound)
	})

	t.Run("List keeps insertion order after delete", func(t *testing.T) {
		repo := NewMemoryRepository()
		names := []string{"Brahma", "Skol", "Heineken"}
		var ids []uuid.UUID
		for _, name := range names {
			beer := newBeer(t, repo, name)
			require.NoError(t, repo.Create(ctx, &beer))
			ids = append(ids, beer.ID)
		}

		require.NoError(t, repo.Delete(ctx, ids[1]))

		beers, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, beers, 2)
		assert.Equal(t, "Brahma", beers[0].Name)
		assert.Equal(t, "Heineken", beers[1].Name)

		_, err = repo.FindByName(ctx, "Skol")
		assert.ErrorIs(t, err, model.ErrBeerNotFound)

		reused := newBeer(t, repo, "Skol")
		assert.NoError(t, repo.Create(ctx, &reused))
	})

	t.Run("Empty list is not nil", func(t *testing.T) {
		beers, err := NewMemoryRepository().ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, beers)
		assert.Empty(t, beers)
	})
}

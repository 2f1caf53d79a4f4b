package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/service"
	"beerstock/pkg/beer/infrastructure/event"
	"beerstock/pkg/beer/infrastructure/repository"
)

const catalogue = `{
  "beers": [
    {"name": "Brahma", "brand": "Ambev", "max": 50, "quantity": 10, "type": "LAGER"},
    {"name": "Guinness", "brand": "Diageo", "max": 30, "quantity": 5, "type": "STOUT"}
  ]
}`

func TestLoadCatalogue(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "beers.json")
		require.NoError(t, os.WriteFile(path, []byte(catalogue), 0o600))

		beers, err := LoadCatalogue(path)
		require.NoError(t, err)
		require.Len(t, beers, 2)
		assert.Equal(t, "Guinness", beers[1].Name)
		assert.Equal(t, model.Stout, beers[1].Type)
	})

	t.Run("Missing file is empty", func(t *testing.T) {
		beers, err := LoadCatalogue(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		assert.Empty(t, beers)
	})

	t.Run("Malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "beers.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

		_, err := LoadCatalogue(path)
		assert.Error(t, err)
	})
}

func TestApplyAndSave(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	beerService := service.NewBeerService(repository.NewMemoryRepository(), event.NewLogDispatcher(logger), logger)

	path := filepath.Join(t.TempDir(), "beers.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogue), 0o600))
	beers, err := LoadCatalogue(path)
	require.NoError(t, err)

	registered, err := Apply(ctx, beerService, beers, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, registered)

	registered, err = Apply(ctx, beerService, beers, logger)
	require.NoError(t, err)
	assert.Zero(t, registered)

	invalid := []model.Beer{{Name: "Skol", Brand: "Ambev", Max: 10, Quantity: 20, Type: model.Pilsen}}
	_, err = Apply(ctx, beerService, invalid, logger)
	assert.ErrorIs(t, err, model.ErrInvalidBeer)

	stock, err := beerService.ListAll(ctx)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, SaveCatalogue(out, stock))

	exported, err := LoadCatalogue(out)
	require.NoError(t, err)
	require.Len(t, exported, 2)
	assert.Equal(t, beers[0].Name, exported[0].Name)
	assert.Equal(t, beers[0].Quantity, exported[0].Quantity)
}

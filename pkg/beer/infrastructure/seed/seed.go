// Package seed loads an initial beer catalogue from a JSON file and writes the current stock back out.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/service"
)

type catalogueJSON struct {
	Beers []beerJSON `json:"beers"`
}

type beerJSON struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Max      int    `json:"max"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

// LoadCatalogue reads beers from filePath. A missing file yields an empty catalogue.
func LoadCatalogue(filePath string) ([]model.Beer, error) {
	file, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Beer{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read catalogue %s", filePath)
	}

	var data catalogueJSON
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse catalogue %s", filePath)
	}

	beers := make([]model.Beer, 0, len(data.Beers))
	for _, b := range data.Beers {
		beers = append(beers, model.Beer{
			Name:     b.Name,
			Brand:    b.Brand,
			Max:      b.Max,
			Quantity: b.Quantity,
			Type:     model.BeerType(b.Type),
		})
	}
	return beers, nil
}

func SaveCatalogue(filePath string, beers []model.Beer) error {
	data := catalogueJSON{Beers: make([]beerJSON, 0, len(beers))}
	for _, b := range beers {
		data.Beers = append(data.Beers, beerJSON{
			Name:     b.Name,
			Brand:    b.Brand,
			Max:      b.Max,
			Quantity: b.Quantity,
			Type:     string(b.Type),
		})
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode catalogue")
	}
	return pkgerrors.Wrapf(os.WriteFile(filePath, jsonData, 0o644), "failed to write catalogue %s", filePath)
}

// Apply registers every beer in the catalogue. Names already registered are skipped.
func Apply(ctx context.Context, beerService service.BeerService, beers []model.Beer, logger log.FieldLogger) (int, error) {
	registered := 0
	for _, beer := range beers {
		_, err := beerService.Register(ctx, beer)
		if errors.Is(err, model.ErrDuplicateName) {
			logger.WithField("name", beer.Name).Info("Beer already registered, skipping")
			continue
		}
		if err != nil {
			return registered, pkgerrors.Wrapf(err, "failed to seed beer %q", beer.Name)
		}
		registered++
	}
	return registered, nil
}

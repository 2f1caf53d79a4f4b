package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/service"
)

const (
	basePath  = "/api/v1"
	beersPath = basePath + "/beers"
)

type beerRequest struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Max      int    `json:"max"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type beerResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Max      int    `json:"max"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

func newBeerResponse(beer model.Beer) beerResponse {
	return beerResponse{
		ID:       beer.ID.String(),
		Name:     beer.Name,
		Brand:    beer.Brand,
		Max:      beer.Max,
		Quantity: beer.Quantity,
		Type:     string(beer.Type),
	}
}

type Handler struct {
	service service.BeerService
	logger  log.FieldLogger
}

func Router(beerService service.BeerService, logger log.FieldLogger) http.Handler {
	h := &Handler{service: beerService, logger: logger}

	r := mux.NewRouter()
	s := r.PathPrefix(beersPath).Subrouter()

	s.HandleFunc("", h.registerBeer).Methods(http.MethodPost)
	s.HandleFunc("", h.listBeers).Methods(http.MethodGet)
	s.HandleFunc("/id/{id}", h.findBeerByID).Methods(http.MethodGet)
	s.HandleFunc("/{name}", h.findBeerByName).Methods(http.MethodGet)
	s.HandleFunc("/{id}", h.deleteBeer).Methods(http.MethodDelete)
	s.HandleFunc("/{id}/increment", h.incrementStock).Methods(http.MethodPatch)
	s.HandleFunc("/{id}/decrement", h.decrementStock).Methods(http.MethodPatch)

	return requestIDMiddleware(logMiddleware(r, logger))
}

func (h *Handler) registerBeer(w http.ResponseWriter, r *http.Request) {
	var request beerRequest
	if err := decodeBody(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	beer, err := h.service.Register(r.Context(), model.Beer{
		Name:     request.Name,
		Brand:    request.Brand,
		Max:      request.Max,
		Quantity: request.Quantity,
		Type:     model.BeerType(request.Type),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", beersPath+"/id/"+url.PathEscape(beer.ID.String()))
	writeJSON(w, http.StatusCreated, newBeerResponse(*beer), h.logger)
}

func (h *Handler) listBeers(w http.ResponseWriter, r *http.Request) {
	beers, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]beerResponse, 0, len(beers))
	for _, beer := range beers {
		response = append(response, newBeerResponse(beer))
	}
	writeJSON(w, http.StatusOK, response, h.logger)
}

func (h *Handler) findBeerByName(w http.ResponseWriter, r *http.Request) {
	beer, err := h.service.FindByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBeerResponse(*beer), h.logger)
}

func (h *Handler) findBeerByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	beer, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBeerResponse(*beer), h.logger)
}

func (h *Handler) deleteBeer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) incrementStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.service.Increment)
}

func (h *Handler) decrementStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.service.Decrement)
}

type stockAdjuster func(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error)

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, adjust stockAdjuster) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var request quantityRequest
	if err := decodeBody(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}
	if request.Quantity == nil {
		h.writeError(w, r, fmt.Errorf("%w: quantity is required", errBadRequest))
		return
	}
	if err := model.ValidateAmount(*request.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	beer, err := adjust(r.Context(), id, *request.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBeerResponse(*beer), h.logger)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid beer id %q", errBadRequest, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed json body: %v", errBadRequest, err)
	}
	return nil
}

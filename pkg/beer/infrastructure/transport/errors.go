package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"beerstock/pkg/beer/domain/model"
)

var errBadRequest = errors.New("bad request")

// standardError is the body of every failed response.
type standardError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrBeerNotFound):
		return http.StatusNotFound, "BeerNotFound"
	case errors.Is(err, model.ErrDuplicateName):
		return http.StatusBadRequest, "BeerAlreadyRegistered"
	case errors.Is(err, model.ErrStockExceeded):
		return http.StatusBadRequest, "BeerStockExceeded"
	case errors.Is(err, model.ErrInsufficientStock):
		return http.StatusBadRequest, "BeerStockInsufficient"
	case errors.Is(err, model.ErrInvalidBeer), errors.Is(err, model.ErrInvalidAmount), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "InvalidRequest"
	case errors.Is(err, model.ErrOptimisticLock):
		return http.StatusConflict, "ConcurrentModification"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	message := err.Error()

	logger := h.logger.WithError(err).WithFields(log.Fields{
		"path":      r.URL.Path,
		"status":    status,
		"requestID": RequestIDFromContext(r.Context()),
	})
	if status == http.StatusInternalServerError {
		logger.Error("request failed")
		message = "internal server error"
	} else {
		logger.Info("request rejected")
	}

	writeJSON(w, status, standardError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     kind,
		Message:   message,
		Path:      r.URL.Path,
	}, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, logger log.FieldLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("write response body")
	}
}

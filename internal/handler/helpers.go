package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-pipeline/internal/cart"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
	"github.com/vasiliy-maslov/order-pipeline/internal/order"
)

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrUserNotFound),
		errors.Is(err, client.ErrProductNotFound),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, client.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientErrorMessage turns a service error into the message exposed to the
// client, hiding internals behind a generic text for unexpected failures.
func clientErrorMessage(err error) string {
	var stockErr *order.InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		return fmt.Sprintf("Insufficient stock for product %s", stockErr.ProductName)
	case errors.Is(err, order.ErrUserNotFound):
		return "Invalid user_id"
	case errors.Is(err, client.ErrProductNotFound):
		return "Invalid product_id"
	case errors.Is(err, order.ErrNoItems):
		return "user_id and items are required"
	case errors.Is(err, order.ErrInvalidInput):
		return "user_id and items must be valid identifiers"
	case errors.Is(err, order.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidQuantity):
		return "quantity must be a positive integer"
	case errors.Is(err, order.ErrInvalidStatus):
		return "Invalid status"
	case errors.Is(err, order.ErrInvalidStatusTransition):
		return "Invalid status transition"
	case errors.Is(err, order.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, cart.ErrEntryNotFound):
		return "Cart item not found"
	case errors.Is(err, client.ErrUnavailable):
		return "Upstream service unavailable"
	default:
		return "Internal server error"
	}
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string)
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
	return details
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-pipeline/internal/cart"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart/{userId}", h.handleGetCart)
	router.Post("/cart/{userId}/items", h.handleAddItem)
	router.Delete("/cart/{userId}/items/{itemId}", h.handleRemoveItem)
	router.Delete("/cart/{userId}", h.handleClearCart)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	entries, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientErrorMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var requestPayload AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode add cart item request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	productID, err := uuid.FromString(requestPayload.ProductID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product_id")
		return
	}

	entry, err := h.service.AddItem(r.Context(), userID, productID, requestPayload.Quantity)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientErrorMessage(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	entryID, err := uuid.FromString(chi.URLParam(r, "itemId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, entryID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientErrorMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.service.ClearCart(r.Context(), userID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientErrorMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

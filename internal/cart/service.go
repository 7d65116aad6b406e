package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
)

var ErrInvalidQuantity = errors.New("cart quantity must be at least 1")

// ProductGetter is the slice of the product service the cart needs.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*client.Product, error)
}

type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]EnrichedEntry, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Entry, error)
	RemoveItem(ctx context.Context, userID, entryID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	cartRepo Repository
	products ProductGetter
}

func NewService(cartRepo Repository, products ProductGetter) Service {
	return &service{
		cartRepo: cartRepo,
		products: products,
	}
}

// GetCart lists the user's cart joined with live product data. A failed
// product lookup degrades that entry to a nil product instead of failing the
// whole listing.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) ([]EnrichedEntry, error) {
	entries, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch cart in repository")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	enriched := make([]EnrichedEntry, 0, len(entries))
	for _, entry := range entries {
		product, err := s.products.GetProduct(ctx, entry.ProductID)
		if err != nil {
			log.Warn().Err(err).Stringer("product_id", entry.ProductID).Msg("service: product enrichment failed for cart entry")
			product = nil
		}
		enriched = append(enriched, EnrichedEntry{Entry: entry, Product: product})
	}

	return enriched, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Entry, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("service: %w", ErrInvalidQuantity)
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, client.ErrProductNotFound) {
			log.Warn().Stringer("product_id", productID).Msg("service: unknown product on cart add")
			return nil, fmt.Errorf("service: product %s: %w", productID, err)
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: product lookup failed on cart add")
		return nil, fmt.Errorf("service: failed to validate product %s: %w", productID, err)
	}

	entry, err := s.cartRepo.Upsert(ctx, userID, productID, quantity)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to upsert cart entry")
		return nil, fmt.Errorf("service: failed to add cart item: %w", err)
	}

	log.Info().Stringer("user_id", userID).Stringer("product_id", productID).Int("quantity", entry.Quantity).Msg("service: cart item added")
	return entry, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, entryID uuid.UUID) error {
	err := s.cartRepo.Remove(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			log.Warn().Stringer("user_id", userID).Stringer("entry_id", entryID).Msg("service: cart entry not found for removal")
			return ErrEntryNotFound
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("entry_id", entryID).Msg("service: failed to remove cart entry")
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return nil
}

// ClearCart is idempotent: clearing an empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	return nil
}

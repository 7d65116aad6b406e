package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
)

var (
	ErrInvalidInput            = errors.New("invalid order input")
	ErrNoItems                 = errors.New("order must contain at least one item")
	ErrInvalidQuantity         = errors.New("item quantity must be positive")
	ErrUserNotFound            = errors.New("user not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// InsufficientStockError carries which product could not be fulfilled. It
// unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ProductGetter is the slice of the product service the orchestrator needs.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*client.Product, error)
}

// UserChecker resolves whether a user id is known to the user service.
type UserChecker interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateOrderInput struct {
	UserID uuid.UUID
	Items  []OrderItemInput
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error)
}

type service struct {
	orderRepo Repository
	products  ProductGetter
	users     UserChecker
}

func NewService(orderRepo Repository, products ProductGetter, users UserChecker) Service {
	return &service{
		orderRepo: orderRepo,
		products:  products,
		users:     users,
	}
}

// CreateOrder validates the checkout against the user and product services,
// then commits the order and the cart clear in one transaction. All remote
// calls happen before the transaction starts, so a validation failure leaves
// no partial state behind.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("service: user id is required: %w", ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		log.Warn().Stringer("user_id", input.UserID).Msg("service: attempt to create order with no items")
		return nil, fmt.Errorf("service: %w", ErrNoItems)
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("service: product id in order item cannot be nil: %w", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: quantity for product %s: %w", item.ProductID, ErrInvalidQuantity)
		}
	}

	exists, err := s.users.UserExists(ctx, input.UserID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", input.UserID).Msg("service: user lookup failed")
		return nil, fmt.Errorf("service: failed to validate user: %w", err)
	}
	if !exists {
		log.Warn().Stringer("user_id", input.UserID).Msg("service: unknown user on checkout")
		return nil, fmt.Errorf("service: user %s: %w", input.UserID, ErrUserNotFound)
	}

	// Validate and price every item in request order, failing on the first
	// problem. Duplicate product ids are priced as independent line items.
	totalAmount := decimal.Zero
	orderItems := make([]OrderItem, 0, len(input.Items))

	for _, item := range input.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, client.ErrProductNotFound) {
				log.Warn().Stringer("product_id", item.ProductID).Msg("service: unknown product on checkout")
				return nil, fmt.Errorf("service: product %s: %w", item.ProductID, err)
			}
			log.Error().Err(err).Stringer("product_id", item.ProductID).Msg("service: product lookup failed")
			return nil, fmt.Errorf("service: failed to validate product %s: %w", item.ProductID, err)
		}

		if product.StockQuantity < item.Quantity {
			log.Warn().
				Stringer("product_id", item.ProductID).
				Int("requested", item.Quantity).
				Int("available", product.StockQuantity).
				Msg("service: insufficient stock on checkout")
			return nil, &InsufficientStockError{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.StockQuantity,
			}
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totalAmount = totalAmount.Add(subtotal)

		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Subtotal:  subtotal,
		})
	}

	newOrder := &Order{
		UserID:      input.UserID,
		TotalAmount: totalAmount,
		Status:      StatusPending,
		Items:       orderItems,
	}

	if _, err := s.orderRepo.CreateOrder(ctx, newOrder); err != nil {
		log.Error().Err(err).Stringer("user_id", input.UserID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", newOrder.ID).Stringer("user_id", newOrder.UserID).Str("total_amount", totalAmount.String()).Msg("service: order created")

	return newOrder, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return order, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error) {
	if _, ok := ParseStatus(string(newStatus)); !ok {
		return nil, fmt.Errorf("service: status %q: %w", newStatus, ErrInvalidStatus)
	}

	currentOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return currentOrder, nil
	}

	if !currentOrder.Status.CanTransitionTo(newStatus) {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, fmt.Errorf("service: cannot transition from %s to %s: %w", currentOrder.Status, newStatus, ErrInvalidStatusTransition)
	}

	err = s.orderRepo.UpdateOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order disappeared during status update")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	updatedOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch order after status update: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", currentOrder.Status).Stringer("new_status", newStatus).Msg("service: order status updated")
	return updatedOrder, nil
}

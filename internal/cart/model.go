package cart

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
)

type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrichedEntry is a cart entry joined with live product data. Product is nil
// when the product service could not resolve the id for this entry.
type EnrichedEntry struct {
	Entry
	Product *client.Product `json:"product"`
}

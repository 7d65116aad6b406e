package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEntryNotFound = errors.New("cart entry not found")

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	// Upsert inserts a new (user, product) row or adds the quantity onto the
	// existing one. There is never more than one row per pair.
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Entry, error)
	Remove(ctx context.Context, userID, entryID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for user id %s: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ProductID,
			&entry.Quantity,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart entry for user id %s: %w", userID, err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart entries for user id %s: %w", userID, err)
	}

	return entries, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Entry, error) {
	entryID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate cart entry ID: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO cart (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	var entry Entry
	err = r.db.QueryRow(ctx, query, entryID, userID, productID, quantity, now).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProductID,
		&entry.Quantity,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to upsert cart entry for user id %s: %w", userID, err)
	}

	return &entry, nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID, entryID uuid.UUID) error {
	// Scoped by user id so one user can never delete another user's entry,
	// even with a valid entry id.
	query := `DELETE FROM cart WHERE id = $1 AND user_id = $2`

	cmdTag, err := r.db.Exec(ctx, query, entryID, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart entry %s: %w", entryID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart for user id %s: %w", userID, err)
	}

	return nil
}

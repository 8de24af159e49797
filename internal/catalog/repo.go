package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
)

// Repo reads the product rows the submission path needs to price carts. The
// catalog itself is managed elsewhere; this surface is read-only.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Repo{db: db}, nil
}

// LoadProducts fetches the active products for the given ids, keyed by id.
// Missing ids are simply absent from the map; the caller decides whether that
// is a cart-level rejection.
func (r *Repo) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	return byID, nil
}

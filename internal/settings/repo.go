package settings

import (
	"context"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads card settings rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Latest returns the most recently updated settings row.
func (r *Repository) Latest(ctx context.Context) (*models.CardSettings, error) {
	var row models.CardSettings
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

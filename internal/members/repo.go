package members

import (
	"context"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes member persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a member by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByBarcode loads the member holding the given barcode token.
func (r *Repository) FindByBarcode(ctx context.Context, barcode string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListActiveWithBarcode returns every active member that has a barcode, oldest first.
func (r *Repository) ListActiveWithBarcode(ctx context.Context) ([]models.Member, error) {
	var rows []models.Member
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.MemberStatusActive).
		Where("barcode IS NOT NULL AND barcode <> ''").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

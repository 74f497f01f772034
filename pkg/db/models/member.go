package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/membercards/pkg/enums"
)

// Member is the persisted member record cards are generated from.
type Member struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	FirstName           string                `gorm:"column:first_name;not null"`
	LastName            string                `gorm:"column:last_name;not null"`
	Email               *string               `gorm:"column:email"`
	Barcode             *string               `gorm:"column:barcode;uniqueIndex"`
	MembershipLevel     enums.MembershipLevel `gorm:"column:membership_level;not null;default:basic"`
	Status              enums.MemberStatus    `gorm:"column:status;not null;default:active"`
	SubscriptionEndDate *time.Time            `gorm:"column:subscription_end_date"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string { return "members" }

package members

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/membercards/pkg/enums"
)

// MemberIdentity is the read-only projection of a member used to build a card.
type MemberIdentity struct {
	ID                  uuid.UUID             `json:"id"`
	DisplayName         string                `json:"display_name"`
	Email               string                `json:"email,omitempty"`
	BarcodeValue        string                `json:"barcode_value"`
	MembershipLevel     enums.MembershipLevel `json:"membership_level"`
	SubscriptionEndDate *time.Time            `json:"subscription_end_date,omitempty"`
	Status              enums.MemberStatus    `json:"status"`
}

// HasBarcode reports whether the member carries a usable barcode token.
func (m MemberIdentity) HasBarcode() bool {
	return strings.TrimSpace(m.BarcodeValue) != ""
}

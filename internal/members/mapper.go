package members

import (
	"strings"

	"github.com/angelmondragon/membercards/pkg/db/models"
)

// FromModel projects a persisted member into a MemberIdentity.
func FromModel(m *models.Member) MemberIdentity {
	if m == nil {
		return MemberIdentity{}
	}
	identity := MemberIdentity{
		ID:              m.ID,
		DisplayName:     strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName)),
		MembershipLevel: m.MembershipLevel,
		Status:          m.Status,
	}
	if m.Email != nil {
		identity.Email = strings.TrimSpace(*m.Email)
	}
	if m.Barcode != nil {
		identity.BarcodeValue = strings.TrimSpace(*m.Barcode)
	}
	if m.SubscriptionEndDate != nil {
		end := *m.SubscriptionEndDate
		identity.SubscriptionEndDate = &end
	}
	return identity
}

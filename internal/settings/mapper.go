package settings

import (
	"strings"

	"github.com/angelmondragon/membercards/pkg/db/models"
)

// FromModel maps a stored settings row onto the defaults; unset columns keep their default.
func FromModel(m *models.CardSettings) CardStyle {
	style := DefaultStyle()
	if m == nil {
		return style
	}
	if m.HeaderTitle != nil {
		style.HeaderTitle = strings.TrimSpace(*m.HeaderTitle)
	}
	if m.HeaderColor != nil {
		style.HeaderColor = *m.HeaderColor
	}
	if m.HeaderTextColor != nil {
		style.HeaderTextColor = *m.HeaderTextColor
	}
	if m.BackgroundColor != nil {
		style.BackgroundColor = *m.BackgroundColor
	}
	if m.TextColor != nil {
		style.TextColor = *m.TextColor
	}
	if m.LogoURL != nil {
		style.LogoURL = strings.TrimSpace(*m.LogoURL)
	}
	if m.LogoWidth != nil {
		style.LogoWidth = *m.LogoWidth
	}
	if m.LogoHeight != nil {
		style.LogoHeight = *m.LogoHeight
	}
	if m.ShowMemberEmail != nil {
		style.ShowMemberEmail = *m.ShowMemberEmail
	}
	if m.ShowValidUntil != nil {
		style.ShowValidUntil = *m.ShowValidUntil
	}
	return style.WithDefaults()
}

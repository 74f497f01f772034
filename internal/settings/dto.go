package settings

const (
	DefaultHeaderTitle     = "MEMBERSHIP CARD"
	DefaultHeaderColor     = "#1E3A8A"
	DefaultHeaderTextColor = "#FFFFFF"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#111827"
	DefaultLogoWidth       = 40.0
	DefaultLogoHeight      = 40.0
)

// CardStyle is the resolved visual configuration applied to every card.
type CardStyle struct {
	HeaderTitle     string  `json:"header_title"`
	HeaderColor     string  `json:"header_color"`
	HeaderTextColor string  `json:"header_text_color"`
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
	LogoURL         string  `json:"logo_url,omitempty"`
	LogoWidth       float64 `json:"logo_width"`
	LogoHeight      float64 `json:"logo_height"`
	ShowMemberEmail bool    `json:"show_member_email"`
	ShowValidUntil  bool    `json:"show_valid_until"`
}

// DefaultStyle is used when no settings row exists.
func DefaultStyle() CardStyle {
	return CardStyle{
		HeaderTitle:     DefaultHeaderTitle,
		HeaderColor:     DefaultHeaderColor,
		HeaderTextColor: DefaultHeaderTextColor,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		LogoWidth:       DefaultLogoWidth,
		LogoHeight:      DefaultLogoHeight,
		ShowMemberEmail: true,
		ShowValidUntil:  true,
	}
}

// WithDefaults fills blank text, non-positive logo sizes and unparsable colors.
// The boolean toggles are taken as given.
func (s CardStyle) WithDefaults() CardStyle {
	out := s
	if out.HeaderTitle == "" {
		out.HeaderTitle = DefaultHeaderTitle
	}
	out.HeaderColor = colorOr(out.HeaderColor, DefaultHeaderColor)
	out.HeaderTextColor = colorOr(out.HeaderTextColor, DefaultHeaderTextColor)
	out.BackgroundColor = colorOr(out.BackgroundColor, DefaultBackgroundColor)
	out.TextColor = colorOr(out.TextColor, DefaultTextColor)
	if out.LogoWidth <= 0 {
		out.LogoWidth = DefaultLogoWidth
	}
	if out.LogoHeight <= 0 {
		out.LogoHeight = DefaultLogoHeight
	}
	return out
}

func colorOr(value, fallback string) string {
	if _, ok := ParseHexColor(value); ok {
		return value
	}
	return fallback
}

package layout

import (
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/internal/settings"
)

// Card geometry in points.
const (
	CardWidth    = 400.0
	CardHeight   = 250.0
	HeaderHeight = 60.0

	logoX = 10.0
	logoY = 10.0

	infoX       = 20.0
	infoLabelY  = 70.0
	infoFirstY  = 90.0
	infoLineGap = 16.0
	infoWidth   = 260.0
	lineHeight  = 14.0

	qrX    = 290.0
	qrY    = 70.0
	qrSide = 90.0

	barcodeX = 20.0
	barcodeY = 180.0
	barcodeW = 360.0
	barcodeH = 60.0

	titleFontSize = 18.0
	labelFontSize = 11.0
	lineFontSize  = 10.0

	maxValueRunes = 44

	ValidUntilLayout = "01/02/2006"
	ValidUntilAbsent = "N/A"
)

// CardInput is everything needed to lay out one card.
type CardInput struct {
	Member  members.MemberIdentity
	Style   settings.CardStyle
	QR      []byte
	Barcode []byte
	// Logo is optional; nil means the card is drawn without one.
	Logo []byte
}

// CardLayout returns the drawing primitives for one card in z-order, with the
// card's top-left corner at 0,0.
func CardLayout(in CardInput) []Op {
	style := in.Style.WithDefaults()
	text := settings.MustRGB(style.TextColor)

	ops := []Op{
		FillRect{X: 0, Y: 0, W: CardWidth, H: CardHeight, Color: settings.MustRGB(style.BackgroundColor)},
		FillRect{X: 0, Y: 0, W: CardWidth, H: HeaderHeight, Color: settings.MustRGB(style.HeaderColor)},
		TextRun{
			X: 0, Y: 0, W: CardWidth, H: HeaderHeight,
			Text:     style.HeaderTitle,
			FontSize: titleFontSize,
			Bold:     true,
			Color:    settings.MustRGB(style.HeaderTextColor),
			Align:    AlignCenter,
		},
	}
	if len(in.Logo) > 0 {
		ops = append(ops, ImagePlacement{X: logoX, Y: logoY, W: style.LogoWidth, H: style.LogoHeight, PNG: in.Logo})
	}

	ops = append(ops, TextRun{
		X: infoX, Y: infoLabelY, W: infoWidth, H: lineHeight,
		Text:     "Member Information",
		FontSize: labelFontSize,
		Bold:     true,
		Color:    text,
		Align:    AlignLeft,
	})

	for i, line := range infoLines(in.Member, style) {
		ops = append(ops, TextRun{
			X: infoX, Y: infoFirstY + float64(i)*infoLineGap, W: infoWidth, H: lineHeight,
			Text:     line,
			FontSize: lineFontSize,
			Color:    text,
			Align:    AlignLeft,
		})
	}

	ops = append(ops,
		ImagePlacement{X: qrX, Y: qrY, W: qrSide, H: qrSide, PNG: in.QR},
		ImagePlacement{X: barcodeX, Y: barcodeY, W: barcodeW, H: barcodeH, PNG: in.Barcode},
	)
	return ops
}

func infoLines(m members.MemberIdentity, style settings.CardStyle) []string {
	lines := []string{
		"Name: " + clip(m.DisplayName),
		"Member ID: " + clip(m.BarcodeValue),
		"Level: " + m.MembershipLevel.Label(),
	}
	if style.ShowMemberEmail && m.Email != "" {
		lines = append(lines, "Email: "+clip(m.Email))
	}
	if style.ShowValidUntil {
		lines = append(lines, "Valid Until: "+FormatValidUntil(m.SubscriptionEndDate))
	}
	return lines
}

// FormatValidUntil renders the subscription end date as a short date.
func FormatValidUntil(end *time.Time) string {
	if end == nil || end.IsZero() {
		return ValidUntilAbsent
	}
	return end.Format(ValidUntilLayout)
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxValueRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxValueRunes-3]) + "..."
}

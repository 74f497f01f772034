package settings

import (
	"testing"

	"github.com/angelmondragon/membercards/pkg/db/models"
)

func TestWithDefaultsFillsPartialStyle(t *testing.T) {
	t.Parallel()

	style := CardStyle{HeaderTitle: "", HeaderColor: "not-a-color", TextColor: "#abc", LogoWidth: -1}.WithDefaults()

	if style.HeaderTitle != DefaultHeaderTitle {
		t.Fatalf("expected default title, got %q", style.HeaderTitle)
	}
	if style.HeaderColor != DefaultHeaderColor {
		t.Fatalf("expected invalid color to fall back, got %q", style.HeaderColor)
	}
	if style.TextColor != "#abc" {
		t.Fatalf("expected short hex to be kept, got %q", style.TextColor)
	}
	if style.BackgroundColor != DefaultBackgroundColor || style.HeaderTextColor != DefaultHeaderTextColor {
		t.Fatalf("expected default colors, got %+v", style)
	}
	if style.LogoWidth != DefaultLogoWidth || style.LogoHeight != DefaultLogoHeight {
		t.Fatalf("expected default logo size, got %vx%v", style.LogoWidth, style.LogoHeight)
	}
	if style.ShowMemberEmail || style.ShowValidUntil {
		t.Fatal("WithDefaults must not flip explicit toggles")
	}
}

func TestParseHexColor(t *testing.T) {
	t.Parallel()

	cases := map[string]RGB{
		"#1E3A8A": {R: 0x1E, G: 0x3A, B: 0x8A},
		"ffffff":  {R: 0xFF, G: 0xFF, B: 0xFF},
		"#abc":    {R: 0xAA, G: 0xBB, B: 0xCC},
	}
	for in, want := range cases {
		got, ok := ParseHexColor(in)
		if !ok || got != want {
			t.Fatalf("%s: expected %+v, got %+v (ok=%v)", in, want, got, ok)
		}
	}
	for _, bad := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		if _, ok := ParseHexColor(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestFromModel(t *testing.T) {
	t.Parallel()

	if got := FromModel(nil); got != DefaultStyle() {
		t.Fatalf("nil row should yield defaults, got %+v", got)
	}

	title := "RIVERSIDE CLUB"
	hide := false
	width := 55.0
	badColor := "blue"
	style := FromModel(&models.CardSettings{
		HeaderTitle:     &title,
		ShowMemberEmail: &hide,
		LogoWidth:       &width,
		HeaderColor:     &badColor,
	})
	if style.HeaderTitle != title || style.ShowMemberEmail || !style.ShowValidUntil {
		t.Fatalf("unexpected mapped style %+v", style)
	}
	if style.LogoWidth != 55 || style.LogoHeight != DefaultLogoHeight {
		t.Fatalf("unexpected logo size %vx%v", style.LogoWidth, style.LogoHeight)
	}
	if style.HeaderColor != DefaultHeaderColor {
		t.Fatalf("expected invalid stored color to fall back, got %q", style.HeaderColor)
	}
}

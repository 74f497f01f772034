package settings

import (
	"strconv"
	"strings"
)

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor accepts #RGB or #RRGGBB, with or without the leading hash.
func ParseHexColor(value string) (RGB, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, true
}

// MustRGB parses value or falls back to black.
func MustRGB(value string) RGB {
	c, _ := ParseHexColor(value)
	return c
}

package cards

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	singleSuffix    = "_card.pdf"
	combinedPrefix  = "membership_cards_combined_"
	combinedStampTS = "2006-01-02T15:04:05.000Z"
)

var (
	displayNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	barcodeUnsafe     = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	stampReplacer     = strings.NewReplacer(":", "-", ".", "-")
)

// SingleFileName is deterministic per member so regenerating overwrites.
func SingleFileName(displayName, barcode string) string {
	name := displayNameUnsafe.ReplaceAllString(strings.TrimSpace(displayName), "_")
	if name == "" {
		name = "member"
	}
	return name + "_" + barcodeUnsafe.ReplaceAllString(barcode, "_") + singleSuffix
}

// CombinedFileName carries the placed count and a millisecond UTC timestamp.
func CombinedFileName(placed int, at time.Time) string {
	stamp := stampReplacer.Replace(at.UTC().Format(combinedStampTS))
	return fmt.Sprintf("%s%d_%s.pdf", combinedPrefix, placed, stamp)
}

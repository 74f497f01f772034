package enums

import (
	"fmt"
	"strings"
)

// MembershipLevel is the tier printed on a member's card.
type MembershipLevel string

const (
	MembershipLevelBasic    MembershipLevel = "basic"
	MembershipLevelSilver   MembershipLevel = "silver"
	MembershipLevelGold     MembershipLevel = "gold"
	MembershipLevelPlatinum MembershipLevel = "platinum"
)

var validMembershipLevels = []MembershipLevel{
	MembershipLevelBasic,
	MembershipLevelSilver,
	MembershipLevelGold,
	MembershipLevelPlatinum,
}

// String implements fmt.Stringer.
func (m MembershipLevel) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipLevel.
func (m MembershipLevel) IsValid() bool {
	for _, candidate := range validMembershipLevels {
		if candidate == m {
			return true
		}
	}
	return false
}

// Label returns the uppercased form shown on cards; unknown levels fall back to basic.
func (m MembershipLevel) Label() string {
	if !m.IsValid() {
		return strings.ToUpper(string(MembershipLevelBasic))
	}
	return strings.ToUpper(string(m))
}

// ParseMembershipLevel converts raw input into a MembershipLevel.
func ParseMembershipLevel(value string) (MembershipLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMembershipLevels {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership level %q", value)
}

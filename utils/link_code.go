package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// LinkCodeType prefixes a trackable-link code with the kind of campaign it
// belongs to.
type LinkCodeType string

const (
	TrackableLinkType LinkCodeType = "TL"
	PromoCodeType     LinkCodeType = "PC"
)

// GenerateLinkCode generates a shareable code for the given link type.
// Format: {TYPE}-{RANDOM} where RANDOM is 6 alphanumeric characters.
// Example: TL-ABC123, PC-XYZ789
func GenerateLinkCode(codeType LinkCodeType) (string, error) {
	// 4 random bytes give us 6 characters in base32
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return string(codeType) + "-" + randomStr, nil
}

// GenerateTrackableLinkCode generates a code for an agent's trackable link.
func GenerateTrackableLinkCode() (string, error) {
	return GenerateLinkCode(TrackableLinkType)
}

// GeneratePromoCode generates a promo code tied to an agent permission.
func GeneratePromoCode() (string, error) {
	return GenerateLinkCode(PromoCodeType)
}

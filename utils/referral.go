package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// ReferralCodePrefix marks every referral code issued by this platform.
// Format: TLK-{RANDOM} where RANDOM is 6 alphanumeric characters.
// Example: TLK-ABC123
const ReferralCodePrefix = "TLK"

// GenerateReferralCode generates a shareable referral code for a new user.
func GenerateReferralCode() (string, error) {
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

	return ReferralCodePrefix + "-" + randomStr, nil
}

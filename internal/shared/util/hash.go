package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a user id to a fixed-width token safe for Redis key names.
// 128 bits of the digest keeps keys short with no practical collision risk.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte("mockmate/user/" + userID))
	return hex.EncodeToString(sum[:16])
}

package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSessionKey derives the denylist key for a session ID. Peppering keeps
// raw session identifiers out of Redis.
func HashSessionKey(sessionID, pepper string) string {
	sum := sha256.Sum256([]byte(sessionID + pepper))
	return hex.EncodeToString(sum[:])
}

package handlers

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// generateID generates a random alphanumeric ID
func generateID(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// generateUserID generates an anonymous user ID
func generateUserID() string {
	return "USER_" + generateID(10)
}

// sanitizeDisplayName trims and bounds a player-chosen display name.
func sanitizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 32 {
		name = name[:32]
	}
	if name == "" {
		name = "Anonymous"
	}
	return name
}

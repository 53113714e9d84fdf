package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeAccountID computes a deterministic account_id using SHA256.
// Formula: SHA256(account|login|server)
// Returns hex-encoded hash (64 characters).
func ComputeAccountID(login, server string) string {
	return computeID("account", login, server)
}

// ComputeInstanceID computes a deterministic instance_id using SHA256.
// Formula: SHA256(instance|login|server)
// Returns hex-encoded hash (64 characters).
func ComputeInstanceID(login, server string) string {
	return computeID("instance", login, server)
}

func computeID(kind, login, server string) string {
	data := fmt.Sprintf("%s|%s|%s", kind, login, server)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

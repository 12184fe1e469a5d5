package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the lowercase-hex HMAC-SHA256 of payload under secret.
// Callers must pass normalized bytes (see Normalize), never the raw
// request body.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the provided hex signature against the expected one
// in constant time.
func Verify(payload []byte, signatureHex string, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

package dagpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// TokenSeparator joins signed tokens. Tokens are not escaped; both parties
// must produce the identical string.
const TokenSeparator = ":"

func SigningPayload(tokens []string) string {
	return strings.Join(tokens, TokenSeparator)
}

// Sign returns the lowercase hex HMAC-SHA512 of the joined tokens.
func Sign(tokens []string, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write([]byte(SigningPayload(tokens)))
	return hex.EncodeToString(mac.Sum(nil))
}

func Verify(tokens []string, secret, provided string) bool {
	return signaturesEqual(Sign(tokens, secret), provided)
}

func signaturesEqual(expected, provided string) bool {
	return hmac.Equal([]byte(expected), []byte(provided))
}

package identity

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DecodeTokenPayload decodes the claims segment of a compact signed token
// (header.payload.signature) into a generic JSON object. The signature is not
// verified; this is read-only introspection, not an authentication check.
// Returns nil on any malformed input instead of an error.
func DecodeTokenPayload(token string) map[string]any {
	raw, ok := decodePayloadSegment(token)
	if !ok {
		return nil
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil
	}

	return claims
}

func decodePayloadSegment(token string) ([]byte, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}

	payload := parts[1]
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}

	return raw, true
}

// tokenClaims holds the few claims the manager actually reads, including the
// vendor-namespaced profile and auth objects OpenAI embeds in its tokens.
type tokenClaims struct {
	Email   string `json:"email"`
	Profile struct {
		Email string `json:"email"`
	} `json:"https://api.openai.com/profile"`
	Auth struct {
		ChatGPTPlanType  string `json:"chatgpt_plan_type"`
		ChatGPTAccountID string `json:"chatgpt_account_id"`
	} `json:"https://api.openai.com/auth"`
}

func parseClaims(token string) (tokenClaims, bool) {
	raw, ok := decodePayloadSegment(token)
	if !ok {
		return tokenClaims{}, false
	}

	var claims tokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return tokenClaims{}, false
	}

	return claims, true
}

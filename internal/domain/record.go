package domain

// CredentialRecord is the on-disk credential schema: an opaque JSON object
// persisted one-per-file. Only a handful of keys are recognized; everything
// else must survive a save round trip untouched.
type CredentialRecord map[string]any

// Recognized credential record keys.
const (
	KeyAPIKey      = "OPENAI_API_KEY"
	KeyTokens      = "tokens"
	KeyLastRefresh = "last_refresh"
	KeyEmail       = "email"
	KeySavedAt     = "saved_at"
	KeyAccountName = "account_name"
)

// StringField returns the value for key when it is a non-empty string.
func (r CredentialRecord) StringField(key string) string {
	if r == nil {
		return ""
	}
	value, _ := r[key].(string)
	return value
}

// Tokens returns the nested token map, or nil when absent or malformed.
func (r CredentialRecord) Tokens() map[string]any {
	if r == nil {
		return nil
	}
	tokens, _ := r[KeyTokens].(map[string]any)
	return tokens
}

// Token returns the named entry of the token map when it is a string.
func (r CredentialRecord) Token(name string) string {
	value, _ := r.Tokens()[name].(string)
	return value
}

// HasTokens reports whether the record carries a non-empty token map.
func (r CredentialRecord) HasTokens() bool {
	return len(r.Tokens()) > 0
}

// Clone returns a shallow copy safe against top-level key mutation.
func (r CredentialRecord) Clone() CredentialRecord {
	if r == nil {
		return nil
	}
	clone := make(CredentialRecord, len(r))
	for key, value := range r {
		clone[key] = value
	}
	return clone
}

// Minimal reduces the record to the fields the Codex CLI itself reads:
// OPENAI_API_KEY, tokens and last_refresh. Management fields are dropped.
func (r CredentialRecord) Minimal() CredentialRecord {
	minimal := CredentialRecord{}
	for _, key := range []string{KeyAPIKey, KeyTokens, KeyLastRefresh} {
		if value, ok := r[key]; ok {
			minimal[key] = value
		}
	}
	return minimal
}

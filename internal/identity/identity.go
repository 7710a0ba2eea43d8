// Package identity derives canonical account identity (email, plan, name)
// from stored credential records by decoding, not verifying, their tokens.
package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bnema/codex-accounts-cli/internal/domain"
)

const (
	idTokenKey     = "id_token"
	accessTokenKey = "access_token"
	accountIDKey   = "account_id"
)

var unsafeNameRunes = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// ExtractEmail derives the canonical email for a credential record.
// Precedence: id_token email, access_token email, access_token profile email,
// then the record's own email field. Empty when nothing matches.
func ExtractEmail(record domain.CredentialRecord) string {
	if claims, ok := parseClaims(record.Token(idTokenKey)); ok && claims.Email != "" {
		return claims.Email
	}

	if claims, ok := parseClaims(record.Token(accessTokenKey)); ok {
		if claims.Email != "" {
			return claims.Email
		}
		if claims.Profile.Email != "" {
			return claims.Profile.Email
		}
	}

	return record.StringField(domain.KeyEmail)
}

// ExtractPlan reads the subscription plan label from the access token's
// vendor auth claims. Empty on any decode failure.
func ExtractPlan(record domain.CredentialRecord) string {
	claims, ok := parseClaims(record.Token(accessTokenKey))
	if !ok {
		return ""
	}

	return claims.Auth.ChatGPTPlanType
}

// ExtractAccountID returns the stored account_id token field, falling back to
// the access token's chatgpt_account_id claim.
func ExtractAccountID(record domain.CredentialRecord) string {
	if id, _ := record.Tokens()[accountIDKey].(string); id != "" {
		return id
	}

	claims, ok := parseClaims(record.Token(accessTokenKey))
	if !ok {
		return ""
	}

	return claims.Auth.ChatGPTAccountID
}

// GenerateAccountName derives a filesystem-safe, human-stable name from an
// email address: the local part with every unsafe rune replaced by an
// underscore. The result is deterministic for a given email. Without an email
// a timestamped fallback name is produced; collisions there are tolerated
// since the path only exists for records no identity can be derived from.
func GenerateAccountName(email string) string {
	if email == "" {
		return fmt.Sprintf("account_%d", time.Now().UnixMilli())
	}

	local, _, _ := strings.Cut(email, "@")
	return unsafeNameRunes.ReplaceAllString(local, "_")
}

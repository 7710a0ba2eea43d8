package domain

import "errors"

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountNotActive        = errors.New("account is not the active account")
	ErrCannotDeleteActive      = errors.New("the active account cannot be deleted")
	ErrMissingActiveCredential = errors.New("active credential file not found")
	ErrUnresolvableIdentity    = errors.New("no email could be derived from the credential")
	ErrEmptyCredential         = errors.New("stored credential has no tokens")
	ErrNoUsageSource           = errors.New("no Codex CLI session file found")
	ErrNoUsageData             = errors.New("no usage data found; send a message with codex first")
)

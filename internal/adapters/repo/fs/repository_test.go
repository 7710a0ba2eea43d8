package fs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/codex-accounts-cli/internal/config"
	"github.com/bnema/codex-accounts-cli/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func testPaths(t *testing.T) config.Paths {
	t.Helper()

	root := t.TempDir()
	return config.Paths{
		ActiveAuthFile: filepath.Join(root, "auth.json"),
		AccountsDir:    filepath.Join(root, "accounts"),
		UsageCacheDir:  filepath.Join(root, "usage_cache"),
		SessionsDir:    filepath.Join(root, "sessions"),
	}
}

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func credentialJSON(t *testing.T, email string, extra map[string]any) []byte {
	t.Helper()

	record := map[string]any{
		"OPENAI_API_KEY": "sk-" + email,
		"tokens": map[string]any{
			"id_token":     makeToken(t, map[string]any{"email": email}),
			"access_token": makeToken(t, map[string]any{}),
		},
		"last_refresh": "2026-08-01T10:00:00Z",
	}
	for key, value := range extra {
		record[key] = value
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	return data
}

func writeAccountFile(t *testing.T, paths config.Paths, name, email string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(paths.AccountsDir, 0o700))
	path := filepath.Join(paths.AccountsDir, name+".json")
	require.NoError(t, os.WriteFile(path, credentialJSON(t, email, map[string]any{
		"saved_at":     "2026-08-20T09:30:00Z",
		"account_name": name,
		"email":        email,
	}), 0o600))
}

func TestLoadAllSortsCurrentFirst(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	writeAccountFile(t, paths, "b", "b@test.com")
	writeAccountFile(t, paths, "a", "a@test.com")
	writeAccountFile(t, paths, "c", "c@test.com")
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, credentialJSON(t, "a@test.com", nil), 0o600))

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.Equal(t, "a", accounts[0].Name)
	assert.True(t, accounts[0].IsCurrent)
	assert.Equal(t, "b", accounts[1].Name)
	assert.False(t, accounts[1].IsCurrent)
	assert.Equal(t, "c", accounts[2].Name)
}

func TestLoadAllNoActiveCredentialFlagsNothingCurrent(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	writeAccountFile(t, paths, "a", "a@test.com")

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.False(t, accounts[0].IsCurrent)
}

func TestLoadAllSkipsMalformedAccountFiles(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	writeAccountFile(t, paths, "good", "good@test.com")
	require.NoError(t, os.WriteFile(filepath.Join(paths.AccountsDir, "broken.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(paths.AccountsDir, "notes.txt"), []byte("ignore me"), 0o600))

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "good", accounts[0].Name)
}

func TestLoadAllMissingAccountsDirectoryIsEmpty(t *testing.T) {
	t.Parallel()

	repo := NewRepository(testPaths(t), nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestLoadAllDerivesIdentityFields(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.MkdirAll(paths.AccountsDir, 0o700))

	record := map[string]any{
		"tokens": map[string]any{
			"id_token": makeToken(t, map[string]any{"email": "alice@test.com"}),
			"access_token": makeToken(t, map[string]any{
				"https://api.openai.com/auth": map[string]any{"chatgpt_plan_type": "plus"},
			}),
		},
		"saved_at": "2026-08-20T09:30:00Z",
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.AccountsDir, "alice.json"), data, 0o600))

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	assert.Equal(t, "alice@test.com", accounts[0].Email)
	assert.Equal(t, "plus", accounts[0].Plan)
	assert.NotEqual(t, domain.UnknownLabel, accounts[0].SavedAt)
}

func TestLoadAllUnknownLabelsWhenUnderivable(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.MkdirAll(paths.AccountsDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(paths.AccountsDir, "mystery.json"), []byte(`{"tokens":{}}`), 0o600))

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	assert.Equal(t, domain.UnknownLabel, accounts[0].Email)
	assert.Equal(t, domain.UnknownLabel, accounts[0].Plan)
	assert.Equal(t, domain.UnknownLabel, accounts[0].SavedAt)
}

func TestSaveActiveMissingCredentialFile(t *testing.T) {
	t.Parallel()

	repo := NewRepository(testPaths(t), nil, nil)
	_, err := repo.SaveActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingActiveCredential)
}

func TestSaveActiveUnresolvableIdentity(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.ActiveAuthFile), 0o700))
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, []byte(`{"tokens":{}}`), 0o600))

	repo := NewRepository(paths, nil, nil)
	_, err := repo.SaveActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnresolvableIdentity)
}

func TestSaveActiveStampsManagementFields(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, credentialJSON(t, "u@test.com", nil), 0o600))

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	repo := NewRepository(paths, fixedClock{now: now}, nil)

	account, err := repo.SaveActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "u", account.Name)
	assert.Equal(t, "u@test.com", account.Email)
	assert.True(t, account.IsCurrent)

	data, err := os.ReadFile(filepath.Join(paths.AccountsDir, "u.json"))
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, now.Format(time.RFC3339), saved["saved_at"])
	assert.Equal(t, "u", saved["account_name"])
	assert.Equal(t, "u@test.com", saved["email"])
	// Original credential fields survive the round trip.
	assert.Equal(t, "sk-u@test.com", saved["OPENAI_API_KEY"])
}

func TestSaveActiveIsAnUpsert(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, credentialJSON(t, "u@test.com", nil), 0o600))

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	repo := NewRepository(paths, fixedClock{now: first}, nil)
	_, err := repo.SaveActive(context.Background())
	require.NoError(t, err)

	second := first.Add(24 * time.Hour)
	repo = NewRepository(paths, fixedClock{now: second}, nil)
	_, err = repo.SaveActive(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(paths.AccountsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(paths.AccountsDir, "u.json"))
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, second.Format(time.RFC3339), saved["saved_at"])
}

func TestActivateWritesMinimalCredential(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, credentialJSON(t, "old@test.com", nil), 0o600))
	writeAccountFile(t, paths, "next", "next@test.com")

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, repo.Activate(context.Background(), accounts[0]))

	data, err := os.ReadFile(paths.ActiveAuthFile)
	require.NoError(t, err)

	var active map[string]any
	require.NoError(t, json.Unmarshal(data, &active))
	assert.Len(t, active, 3)
	assert.Contains(t, active, "OPENAI_API_KEY")
	assert.Contains(t, active, "tokens")
	assert.Contains(t, active, "last_refresh")
	assert.NotContains(t, active, "saved_at")
	assert.NotContains(t, active, "account_name")
	assert.NotContains(t, active, "email")
}

func TestActivateBacksUpPreviousCredential(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	previous := credentialJSON(t, "old@test.com", nil)
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, previous, 0o600))
	writeAccountFile(t, paths, "next", "next@test.com")

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Activate(context.Background(), accounts[0]))

	backup, err := os.ReadFile(paths.ActiveAuthFile + ".backup")
	require.NoError(t, err)
	assert.Equal(t, previous, backup)
}

func TestActivateRejectsEmptyCredential(t *testing.T) {
	t.Parallel()

	repo := NewRepository(testPaths(t), nil, nil)
	err := repo.Activate(context.Background(), domain.Account{
		Name:   "empty",
		Record: domain.CredentialRecord{},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyCredential)
}

func TestDeleteRefusesActiveAccount(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	writeAccountFile(t, paths, "a", "a@test.com")
	require.NoError(t, os.WriteFile(paths.ActiveAuthFile, credentialJSON(t, "a@test.com", nil), 0o600))

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.True(t, accounts[0].IsCurrent)

	err = repo.Delete(context.Background(), accounts[0])
	assert.ErrorIs(t, err, domain.ErrCannotDeleteActive)
	assert.FileExists(t, accounts[0].Path)
}

func TestDeleteRemovesBackingFile(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	writeAccountFile(t, paths, "a", "a@test.com")

	repo := NewRepository(paths, nil, nil)
	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), accounts[0]))
	assert.NoFileExists(t, accounts[0].Path)
}

func TestDeleteMissingFileIsAnError(t *testing.T) {
	t.Parallel()

	paths := testPaths(t)
	repo := NewRepository(paths, nil, nil)

	err := repo.Delete(context.Background(), domain.Account{
		Name: "ghost",
		Path: filepath.Join(paths.AccountsDir, "ghost.json"),
	})
	assert.Error(t, err)
}

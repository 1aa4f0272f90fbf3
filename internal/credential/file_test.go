package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "auth_tokens.json"))

	creds := []model.Credential{
		{AuthorizationCode: "code-1", AccessToken: "token-1"},
		{AuthorizationCode: "eyJhbGciOi.payload.sig", AccessToken: "eyJ0eXAi.other.sig"},
		{AuthorizationCode: "ü-unicode", AccessToken: "line\nbreak"},
	}
	for _, want := range creds {
		require.NoError(t, store.Save(ctx, want))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "auth_tokens.json")
	want := model.Credential{AuthorizationCode: "a", AccessToken: "b"}

	require.NoError(t, NewFileStore(path).Save(ctx, want))
	got, err := NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Parallel()
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrStorage)
}

func TestFileStore_BadContent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "authorization_code=abc"},
		{"truncated", `{"authorization_code": "abc", "access_`},
		{"missing token", `{"authorization_code": "abc"}`},
		{"empty code", `{"authorization_code": "", "access_token": "xyz"}`},
		{"wrong type", `{"authorization_code": 1, "access_token": "xyz"}`},
		{"empty file", ``},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "auth_tokens.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cred, err := NewFileStore(path).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrStorage)
			assert.Equal(t, model.Credential{}, cred)
		})
	}
}

func TestFileStore_LegacyKey(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "auth_tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth_code": "old", "access_token": "tok"}`), 0o600))

	cred, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Credential{AuthorizationCode: "old", AccessToken: "tok"}, cred)
}

func TestFileStore_RejectsPartialSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth_tokens.json")
	store := NewFileStore(path)
	prev := model.Credential{AuthorizationCode: "a", AccessToken: "b"}
	require.NoError(t, store.Save(ctx, prev))

	err := store.Save(ctx, model.Credential{AccessToken: "only-token"})
	assert.ErrorIs(t, err, apperr.ErrStorage)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prev, got, "failed save must leave the previous record intact")
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "auth_tokens.json"))
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(context.Background(), model.Credential{AuthorizationCode: "a", AccessToken: "b"}))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "auth_tokens.json", entries[0].Name())
}

func TestFileStore_SaveIntoNewDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "auth_tokens.json")
	s := NewFileStore(path)
	cred := model.Credential{AuthorizationCode: "code", AccessToken: "token"}

	require.NoError(t, s.Save(context.Background(), cred))
	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestSyncDir(t *testing.T) {
	assert.NoError(t, syncDir(t.TempDir()))

	err := syncDir(filepath.Join(t.TempDir(), "gone"))
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

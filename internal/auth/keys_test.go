package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"decision-eval/backend/internal/limits"
)

func TestMintAndVerify(t *testing.T) {
	keys, err := NewKeys("test-secret")
	require.NoError(t, err)

	key, err := keys.Mint("cust-42", limits.TierProfessional, "ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, key)

	id, err := keys.Verify(key)
	require.NoError(t, err)
	require.Equal(t, "cust-42", id.CustomerID)
	require.Equal(t, limits.TierProfessional, id.Tier)
	require.Equal(t, "ops@example.com", id.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	minter, err := NewKeys("secret-a")
	require.NoError(t, err)
	verifier, err := NewKeys("secret-b")
	require.NoError(t, err)

	key, err := minter.Mint("cust-1", limits.TierDemo, "")
	require.NoError(t, err)

	_, err = verifier.Verify(key)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	keys, err := NewKeys("test-secret")
	require.NoError(t, err)

	for _, key := range []string{"", "not-a-token", "a.b.c"} {
		_, err := keys.Verify(key)
		require.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestUnknownTierFallsBackToDemo(t *testing.T) {
	keys, err := NewKeys("test-secret")
	require.NoError(t, err)

	key, err := keys.Mint("cust-1", limits.Tier("platinum"), "")
	require.NoError(t, err)

	id, err := keys.Verify(key)
	require.NoError(t, err)
	require.Equal(t, limits.TierDemo, id.Tier)
}

func TestNewKeysRequiresSecret(t *testing.T) {
	_, err := NewKeys("  ")
	require.Error(t, err)
}

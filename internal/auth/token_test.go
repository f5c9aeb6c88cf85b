package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arelunainstituto/financeerp/internal/domain"
)

func newTestManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", ttl)
	require.NoError(t, err)
	return tm
}

func TestNewTokenManager_RejectsMissingSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("", time.Hour)
	require.Error(t, err)
}

func TestNewTokenManager_RejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("secret", 0)
	require.Error(t, err)

	_, err = NewTokenManager("secret", -time.Minute)
	require.Error(t, err)
}

func TestGenerateAndParse_RoundTrip(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Hour)
	identity := domain.Identity{UserID: "user-1", Email: "a@x.com"}

	token, expiresAt, err := tm.GenerateToken(identity)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, identity, *got)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Millisecond)
	token, _, err := tm.GenerateToken(domain.Identity{UserID: "u1", Email: "u1@x.com"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = tm.ParseToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Hour)
	token, _, err := tm.GenerateToken(domain.Identity{UserID: "u2", Email: "u2@x.com"})
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", time.Hour)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseToken_Tampered(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Hour)
	token, _, err := tm.GenerateToken(domain.Identity{UserID: "u3", Email: "u3@x.com"})
	require.NoError(t, err)

	// Flip a byte in every segment; none may verify.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	for i := range parts {
		mutated := make([]string, 3)
		copy(mutated, parts)
		seg := []byte(mutated[i])
		if seg[0] == 'A' {
			seg[0] = 'B'
		} else {
			seg[0] = 'A'
		}
		mutated[i] = string(seg)

		_, err := tm.ParseToken(strings.Join(mutated, "."))
		require.Error(t, err, "segment %d", i)
		require.True(t, err == ErrInvalidSignature || err == ErrTokenMalformed || err == ErrTokenExpired,
			"unexpected error for segment %d: %v", i, err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Hour)

	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		_, err := tm.ParseToken(token)
		require.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestDecodeToken_NoVerification(t *testing.T) {
	t.Parallel()

	tm := newTestManager(t, time.Millisecond)
	identity := domain.Identity{UserID: "u4", Email: "u4@x.com"}
	token, _, err := tm.GenerateToken(identity)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	// Expired for ParseToken, still inspectable through DecodeToken.
	_, err = tm.ParseToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)

	decoded := tm.DecodeToken(token)
	require.NotNil(t, decoded)
	require.Equal(t, identity, *decoded)

	require.Nil(t, tm.DecodeToken("not.a.jwt"))
}

package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCredentials struct {
	mu      sync.Mutex
	byEmail map[string]*Credentials
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{byEmail: map[string]*Credentials{}}
}

func (m *memoryCredentials) CreateCredentials(_ context.Context, email, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return uuid.Nil, ErrEmailTaken
	}
	c := &Credentials{UserID: uuid.New(), Email: email, PasswordHash: hash}
	m.byEmail[email] = c
	return c.UserID, nil
}

func (m *memoryCredentials) DeleteCredentials(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, c := range m.byEmail {
		if c.UserID == id {
			delete(m.byEmail, email)
		}
	}
	return nil
}

func (m *memoryCredentials) CredentialsByEmail(_ context.Context, email string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *memoryCredentials) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.UserID == id {
			c.PasswordHash = hash
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestProvider(t *testing.T) (*Provider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	p := NewProvider(newMemoryCredentials(), NewRedisTokenStore(rdb), NewJWTService("test-secret", time.Hour), 30*time.Minute, zap.NewNop())
	return p, mr
}

func TestSignUpThenSignIn(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	principal, session, err := p.SignUp(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", principal.Email)
	assert.Equal(t, "bearer", session.TokenType)
	assert.NotEmpty(t, session.AccessToken)

	_, _, err = p.SignUp(ctx, "ana@x.com", "Abcdef12")
	assert.ErrorIs(t, err, ErrEmailTaken)

	signedIn, _, err := p.SignIn(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)
	assert.Equal(t, principal.ID, signedIn.ID)

	_, _, err = p.SignIn(ctx, "ana@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = p.SignIn(ctx, "nobody@x.com", "Abcdef12")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsRevokedToken(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	principal, session, err := p.SignUp(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)

	verified, err := p.Verify(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, verified.ID)

	require.NoError(t, p.SignOut(ctx, session.AccessToken))
	_, err = p.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = p.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NoError(t, p.SignOut(ctx, "not-a-token"))
}

func TestRevocationExpiresWithToken(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	_, session, err := p.SignUp(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx, session.AccessToken))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	ttl := mr.TTL(keys[0])
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)
}

func TestPasswordReset(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)

	token, err := p.IssueResetToken(ctx, "ana@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, p.ResetPassword(ctx, token, "NewPass99"))
	_, _, err = p.SignIn(ctx, "ana@x.com", "NewPass99")
	require.NoError(t, err)

	assert.ErrorIs(t, p.ResetPassword(ctx, token, "Another1"), ErrInvalidResetToken)

	none, err := p.IssueResetToken(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResetTokenExpires(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "ana@x.com", "Abcdef12")
	require.NoError(t, err)
	token, err := p.IssueResetToken(ctx, "ana@x.com")
	require.NoError(t, err)

	mr.FastForward(31 * time.Minute)
	assert.ErrorIs(t, p.ResetPassword(ctx, token, "NewPass99"), ErrInvalidResetToken)
}

func TestJWTRejectsOtherSecretAndExpiry(t *testing.T) {
	a := NewJWTService("secret-a", time.Hour)
	b := NewJWTService("secret-b", time.Hour)

	token, _, err := a.Generate(uuid.New(), "ana@x.com")
	require.NoError(t, err)
	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTService("secret-a", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Generate(uuid.New(), "ana@x.com")
	require.NoError(t, err)
	_, err = a.Validate(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-admin-api/internal/core/auth"
	"user-admin-api/internal/domain"
	"user-admin-api/pkg/utils"
)

type fakeReader struct {
	accounts map[string]*domain.Account
}

func (f *fakeReader) FindByEmail(email string) (*domain.Account, error) {
	return f.accounts[email], nil
}

func newJWTer(ttl time.Duration) *auth.JWTer {
	return &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: ttl}
}

func newFakeReader() *fakeReader {
	return &fakeReader{accounts: map[string]*domain.Account{
		"admin@deskbird.com": {
			ID:           "id-admin",
			Email:        "admin@deskbird.com",
			PasswordHash: utils.HashPassword("admin123"),
			FirstName:    "Admin",
			LastName:     "User",
			Role:         domain.RoleAdmin,
		},
	}}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	a := NewAuthenticator(newFakeReader(), newJWTer(time.Hour))

	res, err := a.Login("admin@deskbird.com", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
	assert.Equal(t, "id-admin", res.User.ID)

	// verify returns exactly what was issued
	uid, role, err := a.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "id-admin", uid)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestLogin_WrongPassword(t *testing.T) {
	a := NewAuthenticator(newFakeReader(), newJWTer(time.Hour))

	res, err := a.Login("admin@deskbird.com", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, res.Token)
}

func TestLogin_UnknownEmail(t *testing.T) {
	a := NewAuthenticator(&fakeReader{accounts: map[string]*domain.Account{}}, newJWTer(time.Hour))

	res, err := a.Login("x@x.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, res.Token)
}

func TestVerify_Garbage(t *testing.T) {
	a := NewAuthenticator(newFakeReader(), newJWTer(time.Hour))
	_, _, err := a.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	// Parse 留了 60s leeway，签发 TTL 要压过它才算过期
	j := newJWTer(-2 * time.Minute)
	a := NewAuthenticator(newFakeReader(), j)

	tok, err := j.Issue("id-admin", domain.RoleAdmin)
	require.NoError(t, err)

	_, _, err = a.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	other := &auth.JWTer{Secret: []byte("other-secret"), Issuer: "test", TTL: time.Hour}
	tok, err := other.Issue("id-admin", domain.RoleAdmin)
	require.NoError(t, err)

	a := NewAuthenticator(newFakeReader(), newJWTer(time.Hour))
	_, _, err = a.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestLogin_TokenCarriesNoSecrets(t *testing.T) {
	a := NewAuthenticator(newFakeReader(), newJWTer(time.Hour))
	res, err := a.Login("admin@deskbird.com", "admin123")
	require.NoError(t, err)
	assert.NotContains(t, res.Token, "admin123")
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintrack/internal/core"
)

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, core.ErrPasswordTooShort)

	assert.ErrorIs(t, ValidateSignUp("abc", "abc"), core.ErrPasswordTooShort)
	assert.ErrorIs(t, ValidateSignUp("abcdef", "abcdeg"), core.ErrPasswordMismatch)
	assert.NoError(t, ValidateSignUp("abcdef", "abcdef"))
}

func TestTokenRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	tok, exp, err := ti.Issue(core.User{ID: "u1", Role: core.RoleTenant, TenantID: "t1"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ti.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, core.RoleTenant, claims.Role)
	assert.Equal(t, "t1", claims.TenantID)
}

func TestTokenRejected(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	tok, _, err := ti.Issue(core.User{ID: "u1", Role: core.RoleAdmin})
	require.NoError(t, err)

	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = ti.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ti.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestCan(t *testing.T) {
	tests := []struct {
		role core.Role
		act  Action
		want bool
	}{
		{core.RoleAdmin, ActionCreateAccounts, true},
		{core.RoleManager, ActionCreateAccounts, false},
		{core.RoleManager, ActionManageRecords, true},
		{core.RoleManager, ActionManageTenants, true},
		{core.RoleTenant, ActionViewRecords, true},
		{core.RoleTenant, ActionManageRecords, false},
		{core.RoleTenant, ActionUploadReceipts, false},
		{core.Role("ghost"), ActionViewRecords, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Can(tt.role, tt.act), "%s %s", tt.role, tt.act)
	}
}

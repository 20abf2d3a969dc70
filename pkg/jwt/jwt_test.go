package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", "")
	adminID := uuid.New()
	now := time.Now()

	token, err := m.GenerateToken(adminID, "ops@example.com", "sid-1", now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.AdminID)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "ops@example.com", claims.Email)
}

func TestValidateRejects(t *testing.T) {
	m := NewManager("secret", "console")
	now := time.Now()

	expired, err := m.GenerateToken(uuid.New(), "a@b.c", "sid", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewManager("other", "console").GenerateToken(uuid.New(), "a@b.c", "sid", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewManager("secret", "elsewhere").GenerateToken(uuid.New(), "a@b.c", "sid", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = m.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

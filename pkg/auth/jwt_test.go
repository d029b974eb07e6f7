package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: "test-secret", Issuer: "ehr", TTL: time.Hour})
	require.NoError(t, err)

	actor := model.Actor{Role: model.RoleDoctor, Address: "0xABCDEF0000000000000000000000000000000001", ID: "3", Name: "Dr. Bee"}
	token, expires, err := svc.GenerateToken(actor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	got := claims.Actor()
	assert.Equal(t, model.RoleDoctor, got.Role)
	assert.Equal(t, "3", got.ID)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", got.Address)
}

func TestJWTService_Rejects(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	other, err := NewJWTService(Config{Secret: "other-secret", TTL: time.Hour})
	require.NoError(t, err)

	token, _, err := other.GenerateToken(model.Actor{Role: model.RolePatient, ID: "1"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := svc.(*jwtService)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.GenerateToken(model.Actor{Role: model.RolePatient, ID: "1"})
	require.NoError(t, err)
	expired.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(Config{})
	assert.Error(t, err)
}

package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

func TestNewSMTPService(t *testing.T) {
	_, err := NewSMTPService(SMTPConfig{})
	assert.Error(t, err)

	svc, err := NewSMTPService(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "ehr@example.com"})
	require.NoError(t, err)

	m := svc.(*smtpService).message("ann@example.com", "Appointment confirmed", "See you soon")
	assert.Equal(t, []string{"ehr@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"ann@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Appointment confirmed"}, m.GetHeader("Subject"))
}

func TestSMTPService_CancelledContext(t *testing.T) {
	svc, err := NewSMTPService(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "ehr@example.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.SendCustom(ctx, "ann@example.com", "s", "c"), context.Canceled)
}

func TestLogService(t *testing.T) {
	assert.NoError(t, NewLogService(logger.Nop()).SendCustom(context.Background(), "a@b.c", "s", "c"))
}

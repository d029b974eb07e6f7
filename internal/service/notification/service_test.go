package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
	"github.com/vamsi-krishn/EHR-system/pkg/messaging"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendCustom(_ context.Context, to, subject, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to, subject, content})
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeDirectory struct{}

func (fakeDirectory) PatientByID(_ context.Context, id string) (*model.Patient, error) {
	switch id {
	case "1":
		return &model.Patient{ID: "1", Name: "Ann", ContactInfo: "ann@example.com"}, nil
	case "2":
		return &model.Patient{ID: "2", Name: "Cy", ContactInfo: "555-0100"}, nil
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (fakeDirectory) DoctorByID(_ context.Context, id string) (*model.Doctor, error) {
	return &model.Doctor{ID: id, Name: "Dr. Bee"}, nil
}

func message(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	msg, err := json.Marshal(messaging.Message{ID: "e1", Type: eventType, Payload: json.RawMessage(raw)})
	require.NoError(t, err)
	return msg
}

func TestHandle(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewService(nil, fakeDirectory{}, mailer, logger.Nop())
	ctx := context.Background()

	apt := &model.Appointment{ID: "4", PatientID: "1", DoctorID: "1", Reason: "Checkup", Status: model.AppointmentStatusConfirmed,
		Timestamp: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}

	require.NoError(t, svc.Handle(ctx, message(t, model.EventAppointmentStatusChange,
		model.AppointmentStatusChanged{Appointment: apt, From: model.AppointmentStatusPending})))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ann@example.com", mailer.sent[0].to)
	assert.Equal(t, "Appointment confirmed", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Dr. Bee")

	// no e-mail contact
	other := *apt
	other.PatientID = "2"
	require.NoError(t, svc.Handle(ctx, message(t, model.EventAppointmentBooked, &other)))
	assert.Len(t, mailer.sent, 1)

	// unrelated events are ignored
	require.NoError(t, svc.Handle(ctx, message(t, model.EventRecordAdded, map[string]string{"id": "1"})))
	assert.Len(t, mailer.sent, 1)

	assert.Error(t, svc.Handle(ctx, []byte("not json")))
}

func TestStart_ConsumesBrokerEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := messaging.NewLocalBroker(zerolog.Nop())
	defer broker.Close()
	mailer := &fakeMailer{}
	svc := NewService(broker, fakeDirectory{}, mailer, logger.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, svc.Start(ctx))
	}()

	apt := &model.Appointment{ID: "1", PatientID: "1", DoctorID: "1", Status: model.AppointmentStatusPending}
	raw, err := json.Marshal(apt)
	require.NoError(t, err)

	// subscriptions are registered asynchronously; publish until one lands
	assert.Eventually(t, func() bool {
		_ = broker.Publish(ctx, model.EventAppointmentBooked, messaging.Message{
			ID: "e1", Type: model.EventAppointmentBooked, Payload: json.RawMessage(raw),
		})
		return mailer.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

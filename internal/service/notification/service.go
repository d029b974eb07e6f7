package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vamsi-krishn/EHR-system/internal/email"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
	"github.com/vamsi-krishn/EHR-system/pkg/messaging"
)

// Directory looks up the principals named in an event.
type Directory interface {
	PatientByID(ctx context.Context, id string) (*model.Patient, error)
	DoctorByID(ctx context.Context, id string) (*model.Doctor, error)
}

// Service e-mails patients when their appointments are booked or change
// status. It consumes ledger events from the broker.
type Service struct {
	broker    messaging.Broker
	directory Directory
	emailSvc  email.Service
	logger    *logger.Logger
}

func NewService(broker messaging.Broker, directory Directory, emailSvc email.Service, log *logger.Logger) *Service {
	return &Service{
		broker:    broker,
		directory: directory,
		emailSvc:  emailSvc,
		logger:    log.With("notification"),
	}
}

// Start subscribes to appointment events and handles them until ctx ends.
func (s *Service) Start(ctx context.Context) error {
	channels := []string{model.EventAppointmentBooked, model.EventAppointmentStatusChange}

	var wg sync.WaitGroup
	for _, channel := range channels {
		msgs, err := s.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		wg.Add(1)
		go func(channel string, msgs <-chan []byte) {
			defer wg.Done()
			for msg := range msgs {
				if err := s.Handle(ctx, msg); err != nil {
					s.logger.Error(err, "Failed to handle event", "channel", channel)
				}
			}
		}(channel, msgs)
	}

	s.logger.Info("Starting notification subscriber")
	wg.Wait()
	s.logger.Info("Notification subscriber stopped")
	return nil
}

type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handle processes one broker message. Patients without an e-mail address
// as contact info are skipped.
func (s *Service) Handle(ctx context.Context, msg []byte) error {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	var (
		apt     *model.Appointment
		subject string
	)
	switch env.Type {
	case model.EventAppointmentBooked:
		apt = &model.Appointment{}
		if err := json.Unmarshal(env.Payload, apt); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		subject = "Appointment requested"
	case model.EventAppointmentStatusChange:
		var changed model.AppointmentStatusChanged
		if err := json.Unmarshal(env.Payload, &changed); err != nil || changed.Appointment == nil {
			return fmt.Errorf("invalid %s payload", env.Type)
		}
		apt = changed.Appointment
		subject = fmt.Sprintf("Appointment %s", strings.ToLower(string(apt.Status)))
	default:
		return nil
	}

	patient, err := s.directory.PatientByID(ctx, apt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to look up patient %s: %w", apt.PatientID, err)
	}
	if !strings.Contains(patient.ContactInfo, "@") {
		s.logger.Debug("patient has no e-mail contact, skipping", "patient_id", patient.ID)
		return nil
	}
	doctorName := "your doctor"
	if doctor, err := s.directory.DoctorByID(ctx, apt.DoctorID); err == nil {
		doctorName = doctor.Name
	}

	body := fmt.Sprintf("Dear %s,\n\nYour appointment with %s on %s (%s) is now %s.\n",
		patient.Name, doctorName, apt.Timestamp.UTC().Format(time.RFC1123), apt.Reason, apt.Status)
	if err := s.emailSvc.SendCustom(ctx, patient.ContactInfo, subject, body); err != nil {
		return err
	}
	s.logger.Debug("appointment notification sent", "appointment_id", apt.ID, "patient_id", patient.ID)
	return nil
}

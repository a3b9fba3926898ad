package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.pilab.hu/hospital/domain"
)

// PatientService wraps the doctor's patient endpoints. IDs are checked locally because the
// backend routes only match UUIDs.
type PatientService struct {
	c *Client
}

// Patients returns the patient endpoints.
func (c *Client) Patients() *PatientService {
	return &PatientService{c: c}
}

func patientPath(id string, suffix string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidPatientID
	}

	return "/doctor/patients/" + parsed.String() + "/" + suffix, nil
}

// Add creates a patient record. The backend scores it and returns the stored row.
func (s *PatientService) Add(ctx context.Context, in domain.PatientInput) (*domain.Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var p domain.Patient
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/patients/add/", in, &p, "Failed to add patient"); err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns every patient of the signed-in doctor.
func (s *PatientService) List(ctx context.Context) ([]domain.Patient, error) {
	var out []domain.Patient
	if err := s.c.Do(ctx, http.MethodGet, "/doctor/patients/all/", nil, &out, "Failed to fetch patients"); err != nil {
		return nil, err
	}

	return out, nil
}

// Get returns one patient.
func (s *PatientService) Get(ctx context.Context, id string) (*domain.Patient, error) {
	path, err := patientPath(id, "")
	if err != nil {
		return nil, err
	}

	var p domain.Patient
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &p, "Failed to fetch patient"); err != nil {
		return nil, err
	}

	return &p, nil
}

// Update replaces the editable fields of a patient.
func (s *PatientService) Update(ctx context.Context, id string, in domain.PatientInput) (*domain.Patient, error) {
	path, err := patientPath(id, "update/")
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var p domain.Patient
	if err := s.c.Do(ctx, http.MethodPut, path, in, &p, "Failed to update patient"); err != nil {
		return nil, err
	}

	return &p, nil
}

// Delete removes a patient.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	path, err := patientPath(id, "delete/")
	if err != nil {
		return err
	}

	return s.c.Do(ctx, http.MethodDelete, path, nil, nil, "Failed to delete patient")
}

// SendMessage emails a follow-up message to the patient and records it.
func (s *PatientService) SendMessage(ctx context.Context, id, message string) (*StatusResponse, error) {
	path, err := patientPath(id, "send_message/")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var resp StatusResponse
	body := map[string]string{"message": message}
	if err := s.c.Do(ctx, http.MethodPost, path, body, &resp, "Failed to send message"); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Messages lists the follow-up messages sent to a patient.
func (s *PatientService) Messages(ctx context.Context, id string) ([]domain.FollowupMessage, error) {
	path, err := patientPath(id, "messages/")
	if err != nil {
		return nil, err
	}

	var out []domain.FollowupMessage
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &out, "Failed to fetch messages"); err != nil {
		return nil, err
	}

	return out, nil
}

// SendFollowupSMS texts the patient's phone number.
func (s *PatientService) SendFollowupSMS(ctx context.Context, id, message string) (*StatusResponse, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidPatientID
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var resp StatusResponse
	body := map[string]string{"patient_id": parsed.String(), "message": message}
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/send-followup-sms/", body, &resp, "Failed to send SMS"); err != nil {
		return nil, err
	}

	return &resp, nil
}

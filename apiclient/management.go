package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.pilab.hu/hospital/domain"
)

// ManagementService wraps the hospital-wide endpoints available to management accounts.
type ManagementService struct {
	c *Client
}

// Management returns the management endpoints.
func (c *Client) Management() *ManagementService {
	return &ManagementService{c: c}
}

func (s *ManagementService) Doctors(ctx context.Context) ([]domain.Doctor, error) {
	var out []domain.Doctor
	if err := s.c.Do(ctx, http.MethodGet, "/management/doctors/", nil, &out, "Failed to fetch doctors list"); err != nil {
		return nil, err
	}

	return out, nil
}

// PatientsForDoctor lists one doctor's patients. Doctor IDs are not required to be UUIDs.
func (s *ManagementService) PatientsForDoctor(ctx context.Context, doctorID string) ([]domain.Patient, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, ErrInvalidDoctorID
	}

	var out []domain.Patient
	path := "/management/doctors/" + url.PathEscape(doctorID) + "/patients/"
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &out, "Failed to fetch doctor patients"); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *ManagementService) TotalPatients(ctx context.Context) (*domain.PatientCount, error) {
	var out domain.PatientCount
	if err := s.c.Do(ctx, http.MethodGet, "/management/patients/count/", nil, &out, "Failed to fetch total patients count"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *ManagementService) PatientDetails(ctx context.Context, patientID string) (*domain.Patient, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrInvalidPatientID
	}

	var out domain.Patient
	path := "/management/patients/" + url.PathEscape(patientID) + "/"
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &out, "Failed to fetch patient details"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *ManagementService) HospitalStats(ctx context.Context) (*domain.HospitalStats, error) {
	var out domain.HospitalStats
	if err := s.c.Do(ctx, http.MethodGet, "/management/stats/", nil, &out, "Failed to fetch hospital stats"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *ManagementService) Analytics(ctx context.Context) (*domain.AnalyticsData, error) {
	var out domain.AnalyticsData
	if err := s.c.Do(ctx, http.MethodGet, "/management/analytics/", nil, &out, "Failed to fetch analytics data"); err != nil {
		return nil, err
	}

	return &out, nil
}

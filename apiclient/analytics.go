package apiclient

import (
	"context"
	"net/http"

	"go.pilab.hu/hospital/domain"
)

// AnalyticsService wraps the doctor aggregate endpoints.
type AnalyticsService struct {
	c *Client
}

// Analytics returns the doctor aggregate endpoints.
func (c *Client) Analytics() *AnalyticsService {
	return &AnalyticsService{c: c}
}

func (s *AnalyticsService) Stats(ctx context.Context) (*domain.DoctorStats, error) {
	var out domain.DoctorStats
	if err := s.c.Do(ctx, http.MethodGet, "/doctor/stats/", nil, &out, "Failed to fetch doctor stats"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *AnalyticsService) TotalPatients(ctx context.Context) (*domain.PatientCount, error) {
	var out domain.PatientCount
	if err := s.c.Do(ctx, http.MethodGet, "/doctor/total_patients/", nil, &out, "Failed to fetch total patients"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *AnalyticsService) HighRisk(ctx context.Context) (*domain.HighRiskStats, error) {
	var out domain.HighRiskStats
	if err := s.c.Do(ctx, http.MethodGet, "/doctor/high_risk/", nil, &out, "Failed to fetch high risk stats"); err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *AnalyticsService) ReadmissionRate(ctx context.Context) (*domain.ReadmissionRate, error) {
	var out domain.ReadmissionRate
	if err := s.c.Do(ctx, http.MethodGet, "/doctor/readmission_rate/", nil, &out, "Failed to fetch readmission rate"); err != nil {
		return nil, err
	}

	return &out, nil
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"go.pilab.hu/hospital/domain"
)

// LoginPayload is the raw login response. Backends have used several field names for the
// token, so it is kept untyped and read with First.
type LoginPayload map[string]any

// First returns the first non-empty string value among keys.
func (p LoginPayload) First(keys ...string) string {
	for _, k := range keys {
		if s := p.String(k); s != "" {
			return s
		}
	}

	return ""
}

// String returns p[key] if it is a string, "" otherwise.
func (p LoginPayload) String(key string) string {
	if v, ok := p[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case fmt.Stringer:
			return s.String()
		}
	}

	return ""
}

// StatusResponse is the acknowledgement returned by the sign-up and password endpoints.
type StatusResponse struct {
	Status         string      `json:"status,omitempty"`
	Message        string      `json:"message,omitempty"`
	DoctorID       string      `json:"doctor_id,omitempty"`
	Email          string      `json:"email,omitempty"`
	Name           string      `json:"name,omitempty"`
	Specialization string      `json:"specialization,omitempty"`
	Role           domain.Role `json:"role,omitempty"`
}

// AuthService wraps the unauthenticated account endpoints.
type AuthService struct {
	c *Client
}

// Auth returns the account endpoints.
func (c *Client) Auth() *AuthService {
	return &AuthService{c: c}
}

// Login posts the credentials and returns the raw payload.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginPayload, error) {
	body := map[string]string{"email": email, "password": password}

	var payload LoginPayload
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/login/", body, &payload, "Login failed"); err != nil {
		return nil, err
	}

	if payload == nil {
		payload = LoginPayload{}
	}

	return payload, nil
}

// SignUp registers a doctor account.
func (s *AuthService) SignUp(ctx context.Context, in domain.DoctorSignup) (*StatusResponse, error) {
	var resp StatusResponse
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/signup/", in, &resp, "Signup failed"); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ManagementSignUp registers a management account.
func (s *AuthService) ManagementSignUp(ctx context.Context, in domain.ManagementSignup) (*StatusResponse, error) {
	var resp StatusResponse
	if err := s.c.Do(ctx, http.MethodPost, "/management/signup/", in, &resp, "Management signup failed"); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ForgotPassword asks the backend to send a reset email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]string{"email": email}
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/forgot-password/", body, &resp, "Password reset request failed"); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ResetPassword sets a new password using the tokens from the reset link.
func (s *AuthService) ResetPassword(ctx context.Context, in domain.PasswordReset) (*StatusResponse, error) {
	var resp StatusResponse
	if err := s.c.Do(ctx, http.MethodPost, "/doctor/reset-password/", in, &resp, "Password reset failed"); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Profile returns the signed-in doctor's profile.
func (c *Client) Profile(ctx context.Context) (*domain.Doctor, error) {
	var doc domain.Doctor
	if err := c.Do(ctx, http.MethodGet, "/doctor/profile/", nil, &doc, "Failed to fetch profile"); err != nil {
		return nil, err
	}

	return &doc, nil
}

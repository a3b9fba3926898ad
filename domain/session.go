package domain

import "time"

// Profile is the identity of the signed-in user. It is the in-memory session and is mirrored
// as JSON under the userData storage key.
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Name           string `json:"name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// DisplayName returns the name to show in the shell header.
func (p *Profile) DisplayName() string {
	switch {
	case p == nil:
		return "User"
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return "User"
	}
}

// CredentialRecord is the durable client-side copy of a session.
// There is no expiry: the record is valid until it is explicitly cleared.
type CredentialRecord struct {
	AccessToken  string
	RefreshToken string // stored, never used for refresh
	IssuedAt     time.Time
	Profile      *Profile
}

// TokenStatus is a diagnostic snapshot of the persisted credential.
type TokenStatus struct {
	HasToken    bool           `json:"has_token" yaml:"has_token"`
	TokenValid  bool           `json:"token_valid" yaml:"token_valid"`
	TokenLength int            `json:"token_length" yaml:"token_length"`
	TokenAge    *time.Duration `json:"token_age,omitempty" yaml:"token_age,omitempty"`
	HasUserData bool           `json:"has_user_data" yaml:"has_user_data"`
	UserData    *Profile       `json:"user_data,omitempty" yaml:"user_data,omitempty"`
	Claims      map[string]any `json:"claims,omitempty" yaml:"claims,omitempty"`
}

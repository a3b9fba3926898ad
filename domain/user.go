package domain

// Doctor is a doctor profile as returned by the backend.
type Doctor struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Role           Role   `json:"role,omitempty"`
}

// DoctorSignup is the payload of the doctor sign-up form.
type DoctorSignup struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// ManagementSignup is the payload of the management sign-up form.
type ManagementSignup struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// PasswordReset carries the tokens from a reset link. They are never the persisted ones.
type PasswordReset struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	NewPassword  string `json:"new_password"`
}

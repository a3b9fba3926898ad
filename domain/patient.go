package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidBloodPressure = errors.New("invalid value for blood_pressure; expected format 'SYS/DIA'")
	ErrInvalidYesNo         = errors.New("expected Yes or No")
	ErrPatientNameRequired  = errors.New("patient name is required")
)

// YesNo is a categorical flag. The backend accepts "Yes"/"No" on input and stores 1/0, so
// decoding tolerates both forms.
type YesNo bool

func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return []byte(`"Yes"`), nil
	}

	return []byte(`"No"`), nil
}

func (y *YesNo) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*y = false
	case bool:
		*y = YesNo(v)
	case float64:
		*y = v != 0
	case string:
		parsed, err := ParseYesNo(v)
		if err != nil {
			return err
		}
		*y = parsed
	default:
		return fmt.Errorf("%w: got %T", ErrInvalidYesNo, raw)
	}

	return nil
}

// ParseYesNo parses the form values the backend accepts.
func ParseYesNo(s string) (YesNo, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "1", "true":
		return true, nil
	case "no", "0", "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidYesNo, s)
	}
}

// Patient is a patient record with the readmission prediction attached by the backend.
type Patient struct {
	ID                     string    `json:"id"`
	DoctorID               string    `json:"doctor_id,omitempty"`
	Name                   string    `json:"name"`
	Address                string    `json:"address,omitempty"`
	Age                    int       `json:"age"`
	Gender                 string    `json:"gender"`
	BMI                    float64   `json:"bmi"`
	Cholesterol            float64   `json:"cholesterol"`
	BloodPressure          string    `json:"blood_pressure"`
	Diabetes               YesNo     `json:"diabetes"`
	Hypertension           YesNo     `json:"hypertension"`
	MedicationCount        int       `json:"medication_count"`
	LengthOfStay           int       `json:"length_of_stay"`
	DischargeDestination   string    `json:"discharge_destination"`
	PhoneNumber            string    `json:"phonenumber"`
	Email                  string    `json:"email,omitempty"`
	Readmitted             bool      `json:"readmitted"`
	ReadmissionProbability float64   `json:"readmission_probability"`
	CreatedAt              time.Time `json:"created_at,omitempty"`
}

// HighRisk reports whether the predicted readmission probability crosses the threshold the
// management analytics use.
func (p *Patient) HighRisk() bool {
	return p.ReadmissionProbability >= HighRiskThreshold
}

// HighRiskThreshold is the probability at which the backend buckets a patient as high risk.
const HighRiskThreshold = 0.7

// PatientInput is the add/edit patient form.
type PatientInput struct {
	Name                 string  `json:"name"`
	Address              string  `json:"address,omitempty"`
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	BMI                  float64 `json:"bmi"`
	Cholesterol          float64 `json:"cholesterol"`
	BloodPressure        string  `json:"blood_pressure"`
	Diabetes             YesNo   `json:"diabetes"`
	Hypertension         YesNo   `json:"hypertension"`
	MedicationCount      int     `json:"medication_count"`
	LengthOfStay         int     `json:"length_of_stay"`
	DischargeDestination string  `json:"discharge_destination"`
	PhoneNumber          string  `json:"phonenumber"`
	Email                string  `json:"email,omitempty"`
}

// Validate applies the checks the backend would reject anyway, before a round trip.
func (in *PatientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrPatientNameRequired
	}

	return ValidateBloodPressure(in.BloodPressure)
}

// ValidateBloodPressure checks the SYS/DIA form.
func ValidateBloodPressure(bp string) error {
	sys, dia, ok := strings.Cut(strings.TrimSpace(bp), "/")
	if !ok || strings.TrimSpace(sys) == "" || strings.TrimSpace(dia) == "" {
		return ErrInvalidBloodPressure
	}

	return nil
}

// FollowupMessage is a message a doctor sent to a patient.
type FollowupMessage struct {
	ID        string    `json:"id,omitempty"`
	DoctorID  string    `json:"doctor_id"`
	PatientID string    `json:"patient_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

package domain

// DoctorStats is the doctor dashboard summary.
type DoctorStats struct {
	DoctorID                  string  `json:"doctor_id"`
	TotalPatients             int     `json:"total_patients"`
	HighRiskCount             int     `json:"high_risk_count"`
	AvgReadmissionProbability float64 `json:"avg_readmission_probability"`
}

// PatientCount is returned by both the doctor and the management count endpoints.
type PatientCount struct {
	DoctorID      string `json:"doctor_id,omitempty"`
	TotalPatients int    `json:"total_patients"`
}

// HighRiskStats lists the doctor's high-risk patients.
type HighRiskStats struct {
	DoctorID      string    `json:"doctor_id"`
	TotalPatients int       `json:"total_patients"`
	HighRiskCount int       `json:"high_risk_count"`
	Patients      []Patient `json:"patients"`
}

// ReadmissionRate is the share of readmitted patients.
type ReadmissionRate struct {
	DoctorID               string  `json:"doctor_id,omitempty"`
	TotalPatients          int     `json:"total_patients"`
	ReadmittedCount        int     `json:"readmitted_count"`
	ReadmissionRatePercent float64 `json:"readmission_rate_percent"`
}

// HospitalStats is the management dashboard summary.
type HospitalStats struct {
	TotalPatients      int     `json:"total_patients"`
	HighRiskPatients   int     `json:"high_risk_patients"`
	ReadmittedPatients int     `json:"readmitted_patients"`
	HighRiskRate       float64 `json:"high_risk_rate"`
	ReadmissionRate    float64 `json:"readmission_rate"`
}

// AnalyticsData feeds the management analytics charts. The breakdowns are passed through
// as-is because only the presentation layer interprets them.
type AnalyticsData struct {
	HospitalStats
	TotalDoctors     int              `json:"total_doctors"`
	AgeDistribution  []map[string]any `json:"age_distribution"`
	RiskByAge        []map[string]any `json:"risk_by_age"`
	RiskByGender     []map[string]any `json:"risk_by_gender,omitempty"`
	PatientsByDoctor []map[string]any `json:"patients_by_doctor,omitempty"`
}

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/hospital/domain"
)

func validPatientInput() domain.PatientInput {
	return domain.PatientInput{
		Name:                 "Jane Roe",
		Age:                  67,
		Gender:               "Female",
		BMI:                  27.4,
		Cholesterol:          210,
		BloodPressure:        "140/90",
		Diabetes:             true,
		Hypertension:         true,
		MedicationCount:      6,
		LengthOfStay:         5,
		DischargeDestination: "Home",
		PhoneNumber:          "+15550100",
	}
}

func TestPatientService_Routes(t *testing.T) {
	id := uuid.NewString()

	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []call

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		calls = append(calls, c)

		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/doctor/patients/all/" || r.URL.Path == "/doctor/patients/"+id+"/messages/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": id, "name": "Jane Roe", "message": "hi"}})
		case r.URL.Path == "/doctor/send-followup-sms/" || r.URL.Path == "/doctor/patients/"+id+"/send_message/":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "sent"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"id": id, "name": "Jane Roe", "diabetes": 1, "hypertension": "No",
				"blood_pressure": "140/90", "readmission_probability": 0.82,
			})
		}
	})

	svc := New(srv.URL, nil).Patients()
	ctx := context.Background()

	added, err := svc.Add(ctx, validPatientInput())
	require.NoError(t, err)
	assert.True(t, bool(added.Diabetes))
	assert.False(t, bool(added.Hypertension))
	assert.True(t, added.HighRisk())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, id)
	require.NoError(t, err)

	_, err = svc.Update(ctx, id, validPatientInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	resp, err := svc.SendMessage(ctx, id, "Please book a follow-up")
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Message)

	msgs, err := svc.Messages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Message)

	_, err = svc.SendFollowupSMS(ctx, id, "Take your medication")
	require.NoError(t, err)

	want := []struct{ method, path string }{
		{http.MethodPost, "/doctor/patients/add/"},
		{http.MethodGet, "/doctor/patients/all/"},
		{http.MethodGet, "/doctor/patients/" + id + "/"},
		{http.MethodPut, "/doctor/patients/" + id + "/update/"},
		{http.MethodDelete, "/doctor/patients/" + id + "/delete/"},
		{http.MethodPost, "/doctor/patients/" + id + "/send_message/"},
		{http.MethodGet, "/doctor/patients/" + id + "/messages/"},
		{http.MethodPost, "/doctor/send-followup-sms/"},
	}
	require.Len(t, calls, len(want))
	for i, w := range want {
		assert.Equal(t, w.method, calls[i].method, "call %d", i)
		assert.Equal(t, w.path, calls[i].path, "call %d", i)
	}

	assert.Equal(t, "Yes", calls[0].body["diabetes"])
	assert.Equal(t, "140/90", calls[0].body["blood_pressure"])
	assert.Equal(t, id, calls[7].body["patient_id"])
	assert.Equal(t, "Take your medication", calls[7].body["message"])
}

func TestPatientService_LocalValidation(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	svc := New(srv.URL, nil).Patients()
	ctx := context.Background()

	badBP := validPatientInput()
	badBP.BloodPressure = "140"
	_, err := svc.Add(ctx, badBP)
	assert.ErrorIs(t, err, domain.ErrInvalidBloodPressure)

	noName := validPatientInput()
	noName.Name = " "
	_, err = svc.Add(ctx, noName)
	assert.ErrorIs(t, err, domain.ErrPatientNameRequired)

	_, err = svc.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrInvalidPatientID)

	assert.ErrorIs(t, svc.Delete(ctx, "../stats"), ErrInvalidPatientID)

	_, err = svc.SendMessage(ctx, uuid.NewString(), "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.SendFollowupSMS(ctx, "nope", "hello")
	assert.ErrorIs(t, err, ErrInvalidPatientID)

	assert.Zero(t, hits.Load())
}

func TestAnalyticsAndManagement(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doctor/stats/":
			writeJSON(w, http.StatusOK, map[string]any{"doctor_id": "d1", "total_patients": 12, "high_risk_count": 3, "avg_readmission_probability": 0.41})
		case "/doctor/total_patients/", "/management/patients/count/":
			writeJSON(w, http.StatusOK, map[string]any{"total_patients": 12})
		case "/doctor/high_risk/":
			writeJSON(w, http.StatusOK, map[string]any{"high_risk_count": 1, "patients": []map[string]any{{"id": "p1"}}})
		case "/doctor/readmission_rate/":
			writeJSON(w, http.StatusOK, map[string]any{"total_patients": 10, "readmitted_count": 2, "readmission_rate_percent": 20.0})
		case "/management/doctors/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "d1", "name": "Dr. One", "email": nil}})
		case "/management/doctors/d1/patients/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "p1"}, {"id": "p2"}})
		case "/management/patients/p1/":
			writeJSON(w, http.StatusOK, map[string]any{"id": "p1", "name": "Jane"})
		case "/management/stats/":
			writeJSON(w, http.StatusOK, map[string]any{"total_patients": 40, "high_risk_rate": 12.5})
		case "/management/analytics/":
			writeJSON(w, http.StatusOK, map[string]any{"total_patients": 40, "total_doctors": 4, "age_distribution": []map[string]any{{"range": "60-70", "count": 9}}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		}
	})

	c := New(srv.URL, nil)
	ctx := context.Background()

	stats, err := c.Analytics().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.HighRiskCount)

	total, err := c.Analytics().TotalPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, total.TotalPatients)

	hr, err := c.Analytics().HighRisk(ctx)
	require.NoError(t, err)
	assert.Len(t, hr.Patients, 1)

	rate, err := c.Analytics().ReadmissionRate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, rate.ReadmissionRatePercent, 0.001)

	mgmt := c.Management()

	doctors, err := mgmt.Doctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Empty(t, doctors[0].Email)

	pts, err := mgmt.PatientsForDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, pts, 2)

	_, err = mgmt.PatientsForDoctor(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidDoctorID)

	p, err := mgmt.PatientDetails(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.Name)

	count, err := mgmt.TotalPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, count.TotalPatients)

	hs, err := mgmt.HospitalStats(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, hs.HighRiskRate, 0.001)

	an, err := mgmt.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, an.TotalDoctors)
	assert.Equal(t, 40, an.TotalPatients)
	assert.Len(t, an.AgeDistribution, 1)
}

func TestAuthService_Endpoints(t *testing.T) {
	var paths []string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/management/signup/":
			assert.Equal(t, "Head Office", body["full_name"])
			writeJSON(w, http.StatusCreated, map[string]any{"status": "Management account created successfully", "role": "management"})
		case "/doctor/reset-password/":
			assert.Equal(t, "link-access", body["access_token"])
			assert.Equal(t, "new-secret", body["new_password"])
			writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
		case "/doctor/profile/":
			writeJSON(w, http.StatusOK, map[string]any{"id": "d1", "email": nil, "name": "Dr. One", "role": "doctor"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "doctor_id": "d1"})
		}
	})

	c := New(srv.URL, nil)
	ctx := context.Background()

	su, err := c.Auth().SignUp(ctx, domain.DoctorSignup{Email: "d@h.io", Password: "pw", Name: "Dr", Specialization: "Cardiology"})
	require.NoError(t, err)
	assert.Equal(t, "d1", su.DoctorID)

	ms, err := c.Auth().ManagementSignUp(ctx, domain.ManagementSignup{Email: "m@h.io", Password: "pw", FullName: "Head Office"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManagement, ms.Role)

	_, err = c.Auth().ForgotPassword(ctx, "d@h.io")
	require.NoError(t, err)

	rp, err := c.Auth().ResetPassword(ctx, domain.PasswordReset{AccessToken: "link-access", RefreshToken: "link-refresh", NewPassword: "new-secret"})
	require.NoError(t, err)
	assert.Equal(t, "Password updated", rp.Message)

	doc, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dr. One", doc.Name)

	assert.Equal(t, []string{
		"/doctor/signup/", "/management/signup/", "/doctor/forgot-password/", "/doctor/reset-password/", "/doctor/profile/",
	}, paths)
}

func TestCachedAnalytics(t *testing.T) {
	var hits atomic.Int32
	fail := atomic.Bool{}
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total_patients": 7, "total_doctors": 2})
	})

	ctx := context.Background()
	mgmt := New(srv.URL, nil).Management()

	ca := NewCachedAnalytics(mgmt, time.Minute)
	first, err := ca.Analytics(ctx)
	require.NoError(t, err)
	second, err := ca.Analytics(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	_, err = ca.HospitalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	ca.Invalidate()
	fail.Store(true)
	_, err = ca.Analytics(ctx)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	_, err = ca.Analytics(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())

	uncached := NewCachedAnalytics(mgmt, 0)
	fail.Store(false)
	_, _ = uncached.Analytics(ctx)
	_, _ = uncached.Analytics(ctx)
	assert.Equal(t, int32(6), hits.Load())
}

package web

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/nav"
	"golang.org/x/sync/errgroup"
)

// Page is the view model of one dashboard page.
type Page struct {
	Page  string     `json:"page"`
	Shell *nav.Shell `json:"shell,omitempty"`
	Data  any        `json:"data,omitempty"`
}

// DoctorDashboard is the data of the doctor landing page.
type DoctorDashboard struct {
	Profile         *domain.Doctor          `json:"profile,omitempty"`
	Stats           *domain.DoctorStats     `json:"stats"`
	TotalPatients   *domain.PatientCount    `json:"total_patients"`
	HighRisk        *domain.HighRiskStats   `json:"high_risk"`
	ReadmissionRate *domain.ReadmissionRate `json:"readmission_rate"`
}

// PatientDetails is a patient with its follow-up thread.
type PatientDetails struct {
	Patient  *domain.Patient          `json:"patient"`
	Messages []domain.FollowupMessage `json:"messages"`
}

// ManagementDashboard is the data of the management landing page.
type ManagementDashboard struct {
	Stats         *domain.HospitalStats `json:"stats"`
	TotalPatients *domain.PatientCount  `json:"total_patients"`
	Doctors       []domain.Doctor       `json:"doctors"`
}

func (s *Server) page(c echo.Context, name string, data any) error {
	ctx := c.Request().Context()
	path := c.Request().URL.Path

	var recent []string
	if s.history != nil {
		recent = s.history.Recent(ctx)
	}

	shell := nav.BuildShell(path, s.sess.CurrentUser(), recent)

	return c.JSON(http.StatusOK, Page{Page: name, Shell: &shell, Data: data})
}

// AuthPageHandler renders a public page. The login page echoes the remembered path.
func (s *Server) AuthPageHandler(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		data := map[string]string{}
		if from := c.QueryParam("from"); from != "" {
			data["from"] = from
		}

		return c.JSON(http.StatusOK, Page{Page: name, Data: data})
	}
}

func aliasHandler(target string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, target)
	}
}

// LoadDoctorDashboard fetches the doctor aggregates concurrently. The profile is optional.
func LoadDoctorDashboard(ctx context.Context, api *apiclient.Client) (*DoctorDashboard, error) {
	var d DoctorDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = api.Analytics().Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalPatients, err = api.Analytics().TotalPatients(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.HighRisk, err = api.Analytics().HighRisk(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ReadmissionRate, err = api.Analytics().ReadmissionRate(gctx)
		return err
	})
	g.Go(func() error {
		d.Profile, _ = api.Profile(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *Server) DashboardHandler(c echo.Context) error {
	d, err := LoadDoctorDashboard(c.Request().Context(), s.api)
	if err != nil {
		return respondError(c, err)
	}

	return s.page(c, "dashboard", d)
}

func (s *Server) ProfileHandler(c echo.Context) error {
	doc, err := s.api.Profile(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return s.page(c, "profile", doc)
}

func (s *Server) PatientsHandler(c echo.Context) error {
	patients, err := s.api.Patients().List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if patients == nil {
		patients = []domain.Patient{}
	}

	return s.page(c, "patients", patients)
}

// PatientFormHandler renders an empty add-patient form.
func (s *Server) PatientFormHandler(c echo.Context) error {
	return s.page(c, "patient-add", domain.PatientInput{})
}

func (s *Server) PatientDetailsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var d PatientDetails

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Patient, err = s.api.Patients().Get(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Messages, err = s.api.Patients().Messages(gctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return respondError(c, err)
	}
	if d.Messages == nil {
		d.Messages = []domain.FollowupMessage{}
	}

	return s.page(c, "patient-details", d)
}

func (s *Server) PatientEditHandler(c echo.Context) error {
	p, err := s.api.Patients().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return s.page(c, "patient-edit", p)
}

// LoadManagementDashboard fetches the hospital-wide landing data concurrently.
func LoadManagementDashboard(ctx context.Context, api *apiclient.Client, analytics *apiclient.CachedAnalytics) (*ManagementDashboard, error) {
	var d ManagementDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = analytics.HospitalStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalPatients, err = api.Management().TotalPatients(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Doctors, err = api.Management().Doctors(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *Server) ManagementDashboardHandler(c echo.Context) error {
	d, err := LoadManagementDashboard(c.Request().Context(), s.api, s.analytics)
	if err != nil {
		return respondError(c, err)
	}

	return s.page(c, "management-dashboard", d)
}

func (s *Server) ManagementAnalyticsHandler(c echo.Context) error {
	data, err := s.analytics.Analytics(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return s.page(c, "management-analytics", data)
}

func (s *Server) ManagementDoctorsHandler(c echo.Context) error {
	doctors, err := s.api.Management().Doctors(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if doctors == nil {
		doctors = []domain.Doctor{}
	}

	return s.page(c, "management-doctors", doctors)
}

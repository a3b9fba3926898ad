package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/guard"
)

var errBadRequest = errors.New("malformed request body")

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from,omitempty"`
}

// LoginResponse tells the page where to go after signing in.
type LoginResponse struct {
	User     *domain.Profile `json:"user"`
	Redirect string          `json:"redirect"`
}

// MessageRequest is the follow-up message form.
type MessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) registerActions(e *echo.Echo) {
	public := func(name string) echo.MiddlewareFunc {
		r, _, _ := guard.Lookup("/" + name)
		return s.guard.Middleware(r)
	}
	patient, _, _ := guard.Lookup("/patients/:id")
	doctorOnly := s.guard.Middleware(patient)

	e.POST("/login", s.LoginAction, public("login"))
	e.POST("/signup", s.SignUpAction, public("signup"))
	e.POST("/forgot-password", s.ForgotPasswordAction, public("forgot-password"))
	e.POST("/reset-password", s.ResetPasswordAction, s.requireReady)
	e.POST("/management/signup", s.ManagementSignUpAction, public("signup"))
	e.POST("/logout", s.LogoutAction, s.requireReady)
	e.GET("/session", s.SessionHandler, s.requireReady)

	e.POST("/patients", s.AddPatientAction, doctorOnly)
	e.PUT("/patients/:id", s.UpdatePatientAction, doctorOnly)
	e.DELETE("/patients/:id", s.DeletePatientAction, doctorOnly)
	e.POST("/patients/:id/messages", s.SendMessageAction, doctorOnly)
	e.POST("/patients/:id/sms", s.SendSMSAction, doctorOnly)
}

func (s *Server) requireReady(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.sess.Loading() {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		}

		return next(c)
	}
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return errBadRequest
	}

	return nil
}

// LoginAction signs in and answers with the page to open next: the remembered path when
// the role may see it, the role landing page otherwise.
func (s *Server) LoginAction(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	user, err := s.sess.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	redirect := user.Role.LandingPath()
	if localPath(req.From) {
		if r, _, ok := guard.Lookup(req.From); ok && r.Kind == guard.KindProtected && r.Policy.Allows(user.Role) {
			redirect = req.From
		}
	}

	return c.JSON(http.StatusOK, LoginResponse{User: user, Redirect: redirect})
}

// localPath accepts only paths on this host. "//x" and "/\x" are read as another host by browsers.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

func (s *Server) SignUpAction(c echo.Context) error {
	var req domain.DoctorSignup
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.sess.SignUp(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) ManagementSignUpAction(c echo.Context) error {
	var req domain.ManagementSignup
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.sess.ManagementSignUp(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) ForgotPasswordAction(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.sess.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) ResetPasswordAction(c echo.Context) error {
	var req domain.PasswordReset
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.sess.ResetPassword(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// LogoutAction ends the session locally and points the page at the login screen.
func (s *Server) LogoutAction(c echo.Context) error {
	if err := s.sess.SignOut(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	s.analytics.Invalidate()
	if s.history != nil {
		s.history.Clear(c.Request().Context())
	}

	return c.JSON(http.StatusOK, map[string]string{"redirect": guard.LoginPath})
}

// SessionHandler reports the session and the persisted token for diagnostics.
func (s *Server) SessionHandler(c echo.Context) error {
	ctx := c.Request().Context()

	return c.JSON(http.StatusOK, map[string]any{
		"authenticated": s.sess.IsAuthenticated(ctx),
		"user":          s.sess.CurrentUser(),
		"token_status":  s.sess.TokenStatus(ctx),
	})
}

func (s *Server) AddPatientAction(c echo.Context) error {
	var req domain.PatientInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	p, err := s.api.Patients().Add(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (s *Server) UpdatePatientAction(c echo.Context) error {
	var req domain.PatientInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	p, err := s.api.Patients().Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (s *Server) DeletePatientAction(c echo.Context) error {
	if err := s.api.Patients().Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) SendMessageAction(c echo.Context) error {
	var req MessageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.api.Patients().SendMessage(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) SendSMSAction(c echo.Context) error {
	var req MessageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.api.Patients().SendFollowupSMS(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

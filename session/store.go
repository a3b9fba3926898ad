// Package session owns the signed-in user's session: the in-memory profile and, through
// credential.Store, its durable copy. One Store exists per client process.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/credential"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/internal/audit"
	"go.pilab.hu/hospital/internal/metrics"
	"go.pilab.hu/hospital/tracing"
)

var (
	// ErrNoAccessToken means the login response carried no recognizable token.
	ErrNoAccessToken = errors.New("no access token received from server")
	// ErrSignInInProgress is returned to a SignIn that overlaps another.
	ErrSignInInProgress = errors.New("sign-in already in progress")
	// ErrMissingCredentials is returned before any request when email or password is blank.
	ErrMissingCredentials = errors.New("email and password are required")
)

// UnknownUserID is stored when the login response omits the user id.
const UnknownUserID = "unknown"

// Authenticator is the subset of the backend used by the Store.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginPayload, error)
	SignUp(ctx context.Context, in domain.DoctorSignup) (*apiclient.StatusResponse, error)
	ManagementSignUp(ctx context.Context, in domain.ManagementSignup) (*apiclient.StatusResponse, error)
	ForgotPassword(ctx context.Context, email string) (*apiclient.StatusResponse, error)
	ResetPassword(ctx context.Context, in domain.PasswordReset) (*apiclient.StatusResponse, error)
}

// Store is the session store. Reads are safe from any goroutine; mutations happen on
// discrete user actions.
type Store struct {
	auth  Authenticator
	creds *credential.Store
	audit *audit.Logger

	mu      sync.RWMutex
	profile *domain.Profile

	initOnce  sync.Once
	ready     chan struct{}
	signingIn atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithAudit records sign-in, sign-out and restore events to l.
func WithAudit(l *audit.Logger) Option {
	return func(s *Store) {
		s.audit = l
	}
}

// New creates a Store in the loading state. Call Initialize before serving guarded content.
func New(auth Authenticator, creds *credential.Store, opts ...Option) *Store {
	s := &Store{
		auth:  auth,
		creds: creds,
		ready: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Initialize restores the session from persistence. It runs once; later calls are no-ops.
// A missing or malformed record leaves the session empty and clears any partial state.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)

		ctx, span := tracing.Tracer.Start(ctx, "session.Initialize")
		defer span.End()

		logger := log.Ctx(ctx)

		rec, err := s.creds.Load(ctx)
		if err != nil {
			// Only an invalid or incomplete record is cleared. Read failures leave storage alone.
			if !errors.Is(err, credential.ErrNoCredential) && !errors.Is(err, credential.ErrMalformedProfile) {
				logger.Warn().Err(err).Msg("failed to read persisted session")
				return
			}

			logger.Debug().Err(err).Msg("no persisted session")

			if cerr := s.creds.Clear(ctx); cerr != nil {
				logger.Warn().Err(cerr).Msg("failed to clear partial session state")
			}

			return
		}

		s.setProfile(rec.Profile)
		s.audit.Record(ctx, audit.ActionRestore, rec.Profile.ID, rec.Profile.Role.String(), nil)
		logger.Info().
			Str("user_id", rec.Profile.ID).
			Str("role", rec.Profile.Role.String()).
			Msg("session restored")
	})
}

// Loading reports whether Initialize has not completed yet.
func (s *Store) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Ready is closed once Initialize has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// SignIn authenticates against the backend and persists the result. A second SignIn while
// one is outstanding fails with ErrSignInInProgress.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if !s.signingIn.CompareAndSwap(false, true) {
		return nil, ErrSignInInProgress
	}
	defer s.signingIn.Store(false)

	ctx, span := tracing.Tracer.Start(ctx, "session.SignIn")
	defer span.End()

	profile, err := s.signIn(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign-in failed")

		metrics.SignInFailureTotal.Inc()
		s.audit.Record(ctx, audit.ActionSignIn, email, "", err)
		log.Ctx(ctx).Debug().Err(err).Str("email", email).Msg("sign-in failed")

		return nil, err
	}

	metrics.SignInSuccessTotal.Inc()
	s.audit.Record(ctx, audit.ActionSignIn, profile.ID, profile.Role.String(), nil)
	log.Ctx(ctx).Info().
		Str("user_id", profile.ID).
		Str("role", profile.Role.String()).
		Msg("signed in")

	return profile, nil
}

func (s *Store) signIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	payload, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token := payload.First("access_token", "token", "accessToken")
	if token == "" {
		return nil, ErrNoAccessToken
	}

	profile := profileFromPayload(payload, email)
	rec := &domain.CredentialRecord{
		AccessToken:  token,
		RefreshToken: payload.First("refresh_token", "refreshToken"),
		Profile:      profile,
	}

	if err := s.creds.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.setProfile(profile)

	return cloneProfile(profile), nil
}

func profileFromPayload(p apiclient.LoginPayload, email string) *domain.Profile {
	profile := &domain.Profile{
		ID:             p.String("id"),
		Email:          p.String("email"),
		Role:           domain.ParseRole(p.String("role")),
		Name:           p.String("name"),
		Specialization: p.String("specialization"),
	}

	if profile.ID == "" {
		profile.ID = UnknownUserID
	}
	if profile.Email == "" {
		profile.Email = email
	}

	return profile
}

// SignUp registers a doctor. It does not sign in.
func (s *Store) SignUp(ctx context.Context, in domain.DoctorSignup) (*apiclient.StatusResponse, error) {
	return s.auth.SignUp(ctx, in)
}

// ManagementSignUp registers a management account. It does not sign in.
func (s *Store) ManagementSignUp(ctx context.Context, in domain.ManagementSignup) (*apiclient.StatusResponse, error) {
	return s.auth.ManagementSignUp(ctx, in)
}

// ForgotPassword requests a reset email.
func (s *Store) ForgotPassword(ctx context.Context, email string) (*apiclient.StatusResponse, error) {
	return s.auth.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password with the tokens from the reset link. The persisted
// session is neither read nor changed.
func (s *Store) ResetPassword(ctx context.Context, in domain.PasswordReset) (*apiclient.StatusResponse, error) {
	return s.auth.ResetPassword(ctx, in)
}

// SignOut ends the session locally. No backend call is made.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.creds.Clear(ctx); err != nil {
		return err
	}

	if s.profile != nil {
		metrics.ActiveSessionGauge.Set(0)
		s.audit.Record(ctx, audit.ActionSignOut, s.profile.ID, s.profile.Role.String(), nil)
	}
	s.profile = nil
	metrics.SignOutTotal.Inc()
	log.Ctx(ctx).Info().Msg("signed out")

	return nil
}

// IsAuthenticated reports whether a structurally valid token is persisted and a session is
// held in memory.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	s.mu.RLock()
	hasProfile := s.profile != nil
	s.mu.RUnlock()

	if !hasProfile {
		return false
	}

	token, err := s.creds.AccessToken(ctx)
	if err != nil {
		return false
	}

	return credential.Valid(token)
}

// CurrentUser returns a copy of the in-memory profile, or nil.
func (s *Store) CurrentUser() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneProfile(s.profile)
}

// Role returns the session role, or "" without a session.
func (s *Store) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return ""
	}

	return s.profile.Role
}

// TokenStatus describes the persisted credential for diagnostics.
func (s *Store) TokenStatus(ctx context.Context) domain.TokenStatus {
	return s.creds.Status(ctx)
}

func (s *Store) setProfile(p *domain.Profile) {
	s.mu.Lock()
	s.profile = cloneProfile(p)
	s.mu.Unlock()

	metrics.ActiveSessionGauge.Set(1)
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	if p == nil {
		return nil
	}

	cp := *p

	return &cp
}

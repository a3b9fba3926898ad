package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/credential"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/internal/audit"
	"go.pilab.hu/hospital/internal/fixture"
	"go.pilab.hu/hospital/storage"
	"go.pilab.hu/hospital/storage/memory"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (apiclient.LoginPayload, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(0).(apiclient.LoginPayload)
	return p, args.Error(1)
}

func (m *MockAuthenticator) SignUp(ctx context.Context, in domain.DoctorSignup) (*apiclient.StatusResponse, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*apiclient.StatusResponse)
	return r, args.Error(1)
}

func (m *MockAuthenticator) ManagementSignUp(ctx context.Context, in domain.ManagementSignup) (*apiclient.StatusResponse, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*apiclient.StatusResponse)
	return r, args.Error(1)
}

func (m *MockAuthenticator) ForgotPassword(ctx context.Context, email string) (*apiclient.StatusResponse, error) {
	args := m.Called(ctx, email)
	r, _ := args.Get(0).(*apiclient.StatusResponse)
	return r, args.Error(1)
}

func (m *MockAuthenticator) ResetPassword(ctx context.Context, in domain.PasswordReset) (*apiclient.StatusResponse, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*apiclient.StatusResponse)
	return r, args.Error(1)
}

func newTestStore(t *testing.T, kv storage.KV) (*Store, *MockAuthenticator) {
	t.Helper()

	auth := &MockAuthenticator{}
	t.Cleanup(func() { auth.AssertExpectations(t) })

	return New(auth, credential.NewStore(kv)), auth
}

func newKV(t *testing.T) *memory.Store {
	t.Helper()

	kv := memory.New()
	t.Cleanup(func() { _ = kv.Close() })

	return kv
}

func TestStore_SignInPersistsProfile(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	s, auth := newTestStore(t, kv)
	s.Initialize(ctx)

	token := fixture.Token(t, "d1")
	auth.On("Login", ctx, "d1@hospital.test", "secret").Return(apiclient.LoginPayload{
		"id":             "d1",
		"email":          "d1@hospital.test",
		"access_token":   token,
		"refresh_token":  "r1",
		"role":           "doctor",
		"name":           "Dr. One",
		"specialization": "Cardiology",
	}, nil)

	profile, err := s.SignIn(ctx, "d1@hospital.test", "secret")
	require.NoError(t, err)

	want := &domain.Profile{ID: "d1", Email: "d1@hospital.test", Role: domain.RoleDoctor, Name: "Dr. One", Specialization: "Cardiology"}
	assert.Equal(t, want, profile)
	assert.Equal(t, want, s.CurrentUser())
	assert.True(t, s.IsAuthenticated(ctx))

	// A fresh process over the same storage reads the profile back unchanged.
	restored, _ := newTestStore(t, kv)
	restored.Initialize(ctx)
	assert.Equal(t, want, restored.CurrentUser())

	refresh, err := kv.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r1", refresh)
}

func TestStore_SignInTokenFieldFallbacks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		payload     apiclient.LoginPayload
		wantRefresh string
	}{
		{name: "token only", payload: apiclient.LoginPayload{"token": "TOKEN"}},
		{name: "camel case", payload: apiclient.LoginPayload{"accessToken": "TOKEN", "refreshToken": "r2"}, wantRefresh: "r2"},
		{name: "empty access_token falls through", payload: apiclient.LoginPayload{"access_token": "", "token": "TOKEN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newKV(t)
			s, auth := newTestStore(t, kv)
			s.Initialize(ctx)

			token := fixture.Token(t, "x")
			for k, v := range tt.payload {
				if v == "TOKEN" {
					tt.payload[k] = token
				}
			}
			auth.On("Login", ctx, "who@hospital.test", "pw").Return(tt.payload, nil)

			profile, err := s.SignIn(ctx, "who@hospital.test", "pw")
			require.NoError(t, err)

			// Defaults apply when the response omits identity fields.
			assert.Equal(t, UnknownUserID, profile.ID)
			assert.Equal(t, "who@hospital.test", profile.Email)
			assert.Equal(t, domain.RoleDoctor, profile.Role)

			stored, err := kv.Get(ctx, storage.KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, token, stored)

			refresh, err := kv.Get(ctx, storage.KeyRefreshToken)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRefresh, refresh)
		})
	}
}

func TestStore_SignInWithoutToken(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	s, auth := newTestStore(t, kv)
	s.Initialize(ctx)

	auth.On("Login", ctx, "a@b.c", "pw").Return(apiclient.LoginPayload{"id": "1", "email": "a@b.c"}, nil)

	_, err := s.SignIn(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrNoAccessToken)
	assert.Nil(t, s.CurrentUser())

	_, err = kv.Get(ctx, storage.KeyUserData)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SignInBackendError(t *testing.T) {
	ctx := context.Background()
	s, auth := newTestStore(t, newKV(t))
	s.Initialize(ctx)

	apiErr := &apiclient.APIError{Status: 400, Message: "Invalid credentials or email not confirmed"}
	auth.On("Login", ctx, "a@b.c", "bad").Return(nil, apiErr)

	_, err := s.SignIn(ctx, "a@b.c", "bad")
	assert.ErrorIs(t, err, apiErr)
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestStore_SignInValidation(t *testing.T) {
	s, _ := newTestStore(t, newKV(t))

	_, err := s.SignIn(context.Background(), " ", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = s.SignIn(context.Background(), "a@b.c", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestStore_SignInInProgress(t *testing.T) {
	ctx := context.Background()
	s, auth := newTestStore(t, newKV(t))
	s.Initialize(ctx)

	entered := make(chan struct{})
	release := make(chan struct{})
	auth.On("Login", ctx, "a@b.c", "pw").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(apiclient.LoginPayload{"access_token": fixture.Token(t, "a"), "id": "a"}, nil).
		Once()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = s.SignIn(ctx, "a@b.c", "pw")
	}()

	<-entered
	_, err := s.SignIn(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrSignInInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.True(t, s.IsAuthenticated(ctx))
}

func TestStore_InitializeIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, credential.NewStore(kv).Save(ctx, &domain.CredentialRecord{
		AccessToken: fixture.Token(t, "m1"),
		Profile:     &domain.Profile{ID: "m1", Email: "m@hospital.test", Role: domain.RoleManagement},
	}))

	s, _ := newTestStore(t, kv)
	assert.True(t, s.Loading())

	s.Initialize(ctx)
	first := s.CurrentUser()
	s.Initialize(ctx)

	assert.False(t, s.Loading())
	assert.Equal(t, first, s.CurrentUser())
	assert.Equal(t, domain.RoleManagement, s.Role())

	other, _ := newTestStore(t, kv)
	other.Initialize(ctx)
	assert.Equal(t, first, other.CurrentUser())

	select {
	case <-s.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
}

func TestStore_InitializeClearsPartialState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "invalid token", values: map[string]string{
			storage.KeyAccessToken: "undefined",
			storage.KeyUserData:    `{"id":"1","email":"a@b.c","role":"doctor"}`,
		}},
		{name: "corrupt profile", values: map[string]string{
			storage.KeyAccessToken:  fixture.Token(t, "x"),
			storage.KeyRefreshToken: "r",
			storage.KeyUserData:     "{{",
		}},
		{name: "token without profile", values: map[string]string{
			storage.KeyAccessToken: fixture.Token(t, "x"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newKV(t)
			require.NoError(t, kv.SetMany(ctx, tt.values))

			s, _ := newTestStore(t, kv)
			s.Initialize(ctx)

			assert.False(t, s.Loading())
			assert.Nil(t, s.CurrentUser())
			assert.False(t, s.IsAuthenticated(ctx))
			assert.Equal(t, domain.Role(""), s.Role())

			for _, key := range storage.CredentialKeys {
				_, err := kv.Get(ctx, key)
				assert.ErrorIs(t, err, storage.ErrNotFound, key)
			}
		})
	}
}

// flakyKV fails the first read, as a storage backend does on a timeout.
type flakyKV struct {
	storage.KV
	failed bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if !f.failed {
		f.failed = true
		return "", errors.New("i/o timeout")
	}

	return f.KV.Get(ctx, key)
}

func TestStore_InitializeKeepsStateOnReadError(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)

	token := fixture.Token(t, "d1")
	profile := &domain.Profile{ID: "d1", Email: "d1@hospital.test", Role: domain.RoleDoctor}
	require.NoError(t, credential.NewStore(kv).Save(ctx, &domain.CredentialRecord{AccessToken: token, RefreshToken: "r1", Profile: profile}))

	s, _ := newTestStore(t, &flakyKV{KV: kv})
	s.Initialize(ctx)

	assert.False(t, s.Loading())
	assert.Nil(t, s.CurrentUser())

	stored, err := kv.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	// The next start restores the session.
	restored, _ := newTestStore(t, kv)
	restored.Initialize(ctx)
	require.NotNil(t, restored.CurrentUser())
	assert.Equal(t, "d1", restored.CurrentUser().ID)
}

func TestStore_SignOut(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	s, auth := newTestStore(t, kv)
	s.Initialize(ctx)

	auth.On("Login", ctx, "a@b.c", "pw").Return(apiclient.LoginPayload{
		"access_token": fixture.Token(t, "a"), "id": "a", "role": "management",
	}, nil)

	_, err := s.SignIn(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated(ctx))

	require.NoError(t, s.SignOut(ctx))
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Nil(t, s.CurrentUser())

	fresh, _ := newTestStore(t, kv)
	fresh.Initialize(ctx)
	assert.False(t, fresh.IsAuthenticated(ctx))
	assert.Nil(t, fresh.CurrentUser())

	// Only Login was called: sign-out never reaches the backend.
	auth.AssertNumberOfCalls(t, "Login", 1)
}

func TestStore_IsAuthenticatedRequiresBoth(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	s, auth := newTestStore(t, kv)
	s.Initialize(ctx)

	auth.On("Login", ctx, "a@b.c", "pw").Return(apiclient.LoginPayload{"access_token": fixture.Token(t, "a")}, nil)
	_, err := s.SignIn(ctx, "a@b.c", "pw")
	require.NoError(t, err)

	// Token removed behind the store's back.
	require.NoError(t, kv.Delete(ctx, storage.KeyAccessToken))
	assert.False(t, s.IsAuthenticated(ctx))
	assert.NotNil(t, s.CurrentUser())
}

func TestStore_PassThroughs(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	s, auth := newTestStore(t, kv)

	signup := domain.DoctorSignup{Email: "d@h.io", Password: "pw", Name: "Dr", Specialization: "Neuro"}
	mgmt := domain.ManagementSignup{Email: "m@h.io", Password: "pw", FullName: "Ops"}
	reset := domain.PasswordReset{AccessToken: "link", RefreshToken: "link-r", NewPassword: "n"}

	auth.On("SignUp", ctx, signup).Return(&apiclient.StatusResponse{DoctorID: "d"}, nil)
	auth.On("ManagementSignUp", ctx, mgmt).Return(&apiclient.StatusResponse{Role: domain.RoleManagement}, nil)
	auth.On("ForgotPassword", ctx, "d@h.io").Return(&apiclient.StatusResponse{Message: "Password reset email sent"}, nil)
	auth.On("ResetPassword", ctx, reset).Return(&apiclient.StatusResponse{Message: "ok"}, nil)

	r, err := s.SignUp(ctx, signup)
	require.NoError(t, err)
	assert.Equal(t, "d", r.DoctorID)

	r, err = s.ManagementSignUp(ctx, mgmt)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManagement, r.Role)

	r, err = s.ForgotPassword(ctx, "d@h.io")
	require.NoError(t, err)
	assert.Equal(t, "Password reset email sent", r.Message)

	_, err = s.ResetPassword(ctx, reset)
	require.NoError(t, err)

	// None of these create a session.
	s.Initialize(ctx)
	assert.Nil(t, s.CurrentUser())
	_, err = kv.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_TokenStatus(t *testing.T) {
	ctx := context.Background()
	s, auth := newTestStore(t, newKV(t))
	s.Initialize(ctx)

	assert.False(t, s.TokenStatus(ctx).HasToken)

	auth.On("Login", ctx, "a@b.c", "pw").Return(apiclient.LoginPayload{"access_token": fixture.Token(t, "a"), "id": "a"}, nil)
	_, err := s.SignIn(ctx, "a@b.c", "pw")
	require.NoError(t, err)

	st := s.TokenStatus(ctx)
	assert.True(t, st.HasToken)
	assert.True(t, st.TokenValid)
	assert.True(t, st.HasUserData)
	require.NotNil(t, st.UserData)
	assert.Equal(t, "a", st.UserData.ID)
	assert.NotNil(t, st.TokenAge)
}

func TestStore_AuditTrail(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)

	var buf bytes.Buffer
	auth := &MockAuthenticator{}
	t.Cleanup(func() { auth.AssertExpectations(t) })

	s := New(auth, credential.NewStore(kv), WithAudit(audit.New(&buf)))
	s.Initialize(ctx)

	auth.On("Login", ctx, "d1@hospital.test", "wrong").Return(nil, errors.New("Login failed")).Once()
	auth.On("Login", ctx, "d1@hospital.test", "secret").Return(apiclient.LoginPayload{
		"access_token": fixture.Token(t, "d1"), "id": "d1", "role": "doctor",
	}, nil).Once()

	_, err := s.SignIn(ctx, "d1@hospital.test", "wrong")
	require.Error(t, err)
	_, err = s.SignIn(ctx, "d1@hospital.test", "secret")
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx))

	restored := New(auth, credential.NewStore(kv), WithAudit(audit.New(&buf)))
	restored.Initialize(ctx)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "a restore without a persisted session is not audited")
	assert.Contains(t, lines[0], `"success":false`)
	assert.Contains(t, lines[0], `"user":"d1@hospital.test"`)
	assert.Contains(t, lines[1], `"action":"sign_in"`)
	assert.Contains(t, lines[1], `"user":"d1"`)
	assert.Contains(t, lines[2], `"action":"sign_out"`)
}

package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/storage"
)

var (
	// ErrNoCredential means no usable token is persisted.
	ErrNoCredential = errors.New("no valid access token persisted")
	// ErrMalformedProfile means the persisted userData could not be decoded.
	ErrMalformedProfile = errors.New("persisted user data is malformed")
)

// Store reads and writes the persisted credential record. It owns the credential keys of
// the underlying KV; nothing else writes them.
type Store struct {
	kv  storage.KV
	now func() time.Time
}

// NewStore creates a credential store over kv.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// AccessToken returns the raw persisted token, or "" when none is stored. The caller applies
// Valid; this accessor does not judge the value.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, storage.KeyAccessToken)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	return v, nil
}

// Load returns the persisted record. It fails with ErrNoCredential when the token is missing
// or structurally invalid, and with ErrMalformedProfile when the profile is missing or cannot
// be decoded.
func (s *Store) Load(ctx context.Context) (*domain.CredentialRecord, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if !Valid(token) {
		return nil, ErrNoCredential
	}

	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	refresh, err := s.get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return nil, err
	}

	rec := &domain.CredentialRecord{
		AccessToken:  token,
		RefreshToken: refresh,
		Profile:      profile,
	}

	if ts, _ := s.get(ctx, storage.KeyTokenTimestamp); ts != "" {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			rec.IssuedAt = time.UnixMilli(ms)
		}
	}

	return rec, nil
}

// Profile decodes the persisted userData.
func (s *Store) Profile(ctx context.Context) (*domain.Profile, error) {
	raw, err := s.get(ctx, storage.KeyUserData)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrMalformedProfile
	}

	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProfile, err)
	}
	if p.ID == "" && p.Email == "" {
		return nil, ErrMalformedProfile
	}
	p.Role = domain.ParseRole(string(p.Role))

	return &p, nil
}

// Save replaces the persisted record wholesale. IssuedAt defaults to now.
func (s *Store) Save(ctx context.Context, rec *domain.CredentialRecord) error {
	if rec == nil || rec.Profile == nil {
		return errors.New("credential record requires a profile")
	}

	userData, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}

	issuedAt := rec.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.now()
		rec.IssuedAt = issuedAt
	}

	// An empty refresh token is written too, replacing any previous one in the same write.
	values := map[string]string{
		storage.KeyAccessToken:    rec.AccessToken,
		storage.KeyRefreshToken:   rec.RefreshToken,
		storage.KeyTokenTimestamp: strconv.FormatInt(issuedAt.UnixMilli(), 10),
		storage.KeyUserData:       string(userData),
	}

	if err := s.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	log.Ctx(ctx).Debug().
		Str("access_token", Preview(rec.AccessToken)).
		Int("token_length", len(rec.AccessToken)).
		Time("issued_at", issuedAt).
		Msg("credentials stored")

	return nil
}

// Clear removes every credential key in one delete.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.CredentialKeys...); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	return nil
}

// Status reports what is persisted, for diagnostics. Read errors are folded into the
// snapshot as absent values.
func (s *Store) Status(ctx context.Context) domain.TokenStatus {
	token, _ := s.AccessToken(ctx)
	status := domain.TokenStatus{
		HasToken:    token != "",
		TokenValid:  Valid(token),
		TokenLength: len(token),
	}

	if ts, _ := s.get(ctx, storage.KeyTokenTimestamp); ts != "" {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			age := s.now().Sub(time.UnixMilli(ms))
			status.TokenAge = &age
		}
	}

	if p, err := s.Profile(ctx); err == nil {
		status.HasUserData = true
		status.UserData = p
	}

	if status.TokenValid {
		if claims, err := Inspect(token); err == nil {
			status.Claims = claims
		}
	}

	return status
}

// Package storage defines the durable key-value store that holds the dashboard client's
// persisted state. It plays the part a browser's origin-scoped local storage plays for a web
// frontend: values survive restarts and are visible to every component of one client.
package storage

import (
	"context"
	"errors"
)

// Keys under which the client persists its state.
const (
	KeyAccessToken    = "access_token"
	KeyRefreshToken   = "refresh_token"
	KeyTokenTimestamp = "token_timestamp"
	KeyUserData       = "userData"
	KeyNavHistory     = "navHistory"
)

// CredentialKeys are cleared together on sign-out.
var CredentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserData, KeyTokenTimestamp}

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KV is a string key-value store.
//
// SetMany and Delete apply all of their keys in one write where the backend allows it, so a
// credential record is never observed half written.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendBolt    Backend = "bolt"
	BackendRedis   Backend = "redis"
	BackendMongoDB Backend = "mongodb"
	BackendMemory  Backend = "memory"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendBolt, BackendRedis, BackendMongoDB, BackendMemory:
		return true
	}

	return false
}

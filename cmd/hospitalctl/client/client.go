// Package client assembles the dashboard client from configuration: storage backend,
// credential store, backend API client, session store and navigation history.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/config"
	"go.pilab.hu/hospital/credential"
	"go.pilab.hu/hospital/internal/audit"
	"go.pilab.hu/hospital/nav"
	"go.pilab.hu/hospital/session"
	"go.pilab.hu/hospital/storage"
	"go.pilab.hu/hospital/storage/bolt"
	"go.pilab.hu/hospital/storage/memory"
	"go.pilab.hu/hospital/storage/mongodb"
	"go.pilab.hu/hospital/storage/redis"
)

// Client is one dashboard client: one storage, one session.
type Client struct {
	Config      *config.Config
	KV          storage.KV
	Credentials *credential.Store
	API         *apiclient.Client
	Session     *session.Store
	History     *nav.History
	Analytics   *apiclient.CachedAnalytics

	auditFile io.Closer
}

// OpenStorage opens the configured KV backend.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.StorageBackend {
	case storage.BackendBolt:
		return bolt.Open(cfg.BoltPath)
	case storage.BackendRedis:
		return redis.Dial(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	case storage.BackendMongoDB:
		return mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	case storage.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageBackend, cfg.StorageBackend)
	}
}

// New wires a client over kv. The session is not initialized.
func New(cfg *config.Config, kv storage.KV, opts ...session.Option) *Client {
	creds := credential.NewStore(kv)
	api := apiclient.New(cfg.APIBaseURL, creds, apiclient.WithTimeout(cfg.RequestTimeout))

	return &Client{
		Config:      cfg,
		KV:          kv,
		Credentials: creds,
		API:         api,
		Session:     session.New(api.Auth(), creds, opts...),
		History:     nav.NewHistory(kv),
		Analytics:   apiclient.NewCachedAnalytics(api.Management(), cfg.AnalyticsCacheTTL),
	}
}

// Open opens the configured storage and wires a client over it.
func Open(ctx context.Context, cfg *config.Config) (*Client, error) {
	kv, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}

	log.Ctx(ctx).Debug().
		Str("backend", string(cfg.StorageBackend)).
		Str("api_base_url", cfg.APIBaseURL).
		Msg("client storage opened")

	if cfg.AuditLog == "" {
		return New(cfg, kv), nil
	}

	f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	c := New(cfg, kv, session.WithAudit(audit.New(f)))
	c.auditFile = f

	return c, nil
}

// Close releases the storage.
func (c *Client) Close() error {
	c.Analytics.Invalidate()

	var errs []error
	if err := c.KV.Close(); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}

	if c.auditFile != nil {
		errs = append(errs, c.auditFile.Close())
	}

	return errors.Join(errs...)
}

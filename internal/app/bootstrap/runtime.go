package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// AWSLoader resolves the shared AWS SDK configuration.
type AWSLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ConnectPostgresPool opens a pgx pool, or returns nil for an empty URL or
// an unreachable database.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Warn("postgres pool config invalid", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// Backends lazily opens the shared infrastructure clients the selected
// backends need, so a memory-only deployment never dials anything.
type Backends struct {
	cfg       *appconfig.Config
	logger    *logging.Logger
	loadAWS   AWSLoader
	mu        sync.Mutex
	redis     *redis.Client
	pool      *pgxpool.Pool
	sqlDB     *sql.DB
	awsCfg    *aws.Config
	closeFunc []func()
}

// NewBackends creates a lazy backend holder. loadAWS may be nil when no AWS
// backend is selected.
func NewBackends(cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) *Backends {
	if logger == nil {
		logger = logging.Default()
	}
	return &Backends{cfg: cfg, logger: logger, loadAWS: loadAWS}
}

// Redis returns the shared Redis client.
func (b *Backends) Redis(ctx context.Context) (*redis.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.redis != nil {
		return b.redis, nil
	}
	client := BuildRedisClient(ctx, b.cfg, b.logger, true)
	if client == nil {
		return nil, fmt.Errorf("bootstrap: redis unavailable at %q", b.cfg.RedisAddr)
	}
	b.redis = client
	b.closeFunc = append(b.closeFunc, func() { _ = client.Close() })
	return client, nil
}

// Postgres returns the shared pgx pool.
func (b *Backends) Postgres(ctx context.Context) (*pgxpool.Pool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		return b.pool, nil
	}
	pool := ConnectPostgresPool(ctx, b.cfg.DatabaseURL, b.logger)
	if pool == nil {
		return nil, errors.New("bootstrap: postgres unavailable (check DATABASE_URL)")
	}
	b.pool = pool
	b.closeFunc = append(b.closeFunc, pool.Close)
	return pool, nil
}

// SQL returns a database/sql handle on the lib/pq driver.
func (b *Backends) SQL(ctx context.Context) (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sqlDB != nil {
		return b.sqlDB, nil
	}
	if strings.TrimSpace(b.cfg.DatabaseURL) == "" {
		return nil, errors.New("bootstrap: DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", b.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: ping sql db: %w", err)
	}
	db.SetMaxOpenConns(4)
	b.sqlDB = db
	b.closeFunc = append(b.closeFunc, func() { _ = db.Close() })
	return db, nil
}

// AWS returns the shared AWS configuration.
func (b *Backends) AWS(ctx context.Context) (aws.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.awsCfg != nil {
		return *b.awsCfg, nil
	}
	if b.loadAWS == nil {
		return aws.Config{}, errors.New("bootstrap: no AWS loader configured")
	}
	awsCfg, err := b.loadAWS(ctx, b.cfg)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	b.awsCfg = &awsCfg
	return awsCfg, nil
}

// Close releases every client opened so far.
func (b *Backends) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.closeFunc) - 1; i >= 0; i-- {
		b.closeFunc[i]()
	}
	b.closeFunc = nil
}
